// Package meow implements the transport collaborator on top of
// go.mau.fi/whatsmeow.
package meow

import (
	"context"
	"fmt"

	"wagate/internal/transport"

	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Factory creates whatsmeow-backed connections. The credential datastore
// driver is "sqlite" (one file per session) or "postgres" with a shared
// DSN, mirroring WA_STORE_DRIVER / WA_STORE_DSN.
type Factory struct {
	driver string
	dsn    string
	log    *logrus.Logger
}

// NewFactory creates a Factory for the given datastore settings. The
// device label is applied once here: whatsmeow exposes it through a
// process-global (store.DeviceProps), so all sessions in one process
// share the same companion name.
func NewFactory(driver, dsn, deviceName, poweredBy string, log *logrus.Logger) *Factory {
	if driver == "" {
		driver = "sqlite"
	}
	if label := deviceLabel(deviceName, poweredBy); label != "" {
		store.DeviceProps.Os = &label
	}
	return &Factory{driver: driver, dsn: dsn, log: log}
}

// CreateConnection brings up one session connection. For an unpaired
// device it starts the QR or phone-code challenge flow and reports
// challenges through the callbacks in opts; login completion surfaces
// through the status-find callback.
func (f *Factory) CreateConnection(ctx context.Context, opts transport.CreateOptions) (transport.Conn, error) {
	container, err := f.openContainer(ctx, opts.Session)
	if err != nil {
		return nil, err
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("get device store: %w", err)
	}

	client := whatsmeow.NewClient(device, nil)
	conn := newConn(client, container, opts, f.log)
	client.AddEventHandler(conn.handleEvent)

	if opts.OnLoadingScreen != nil {
		opts.OnLoadingScreen(0, "connecting")
	}

	switch {
	case device.ID != nil:
		// Stored credentials: resume without a visible challenge.
		if err := client.Connect(); err != nil {
			container.Close()
			return nil, fmt.Errorf("restore session: %w", err)
		}

	case opts.Phone != "":
		if err := client.Connect(); err != nil {
			container.Close()
			return nil, fmt.Errorf("connect for pairing: %w", err)
		}
		code, err := client.PairPhone(ctx, opts.Phone, true, whatsmeow.PairClientChrome, "Chrome (Linux)")
		if err != nil {
			client.Disconnect()
			container.Close()
			return nil, fmt.Errorf("pair phone: %w", err)
		}
		if opts.CatchLinkCode != nil {
			opts.CatchLinkCode(code)
		}

	default:
		qrChan, err := client.GetQRChannel(ctx)
		if err != nil {
			container.Close()
			return nil, fmt.Errorf("qr channel: %w", err)
		}
		if err := client.Connect(); err != nil {
			container.Close()
			return nil, fmt.Errorf("connect for qr: %w", err)
		}
		go conn.qrLoop(qrChan)
	}

	return conn, nil
}

func deviceLabel(deviceName, poweredBy string) string {
	switch {
	case deviceName != "" && poweredBy != "":
		return poweredBy + ": " + deviceName
	case deviceName != "":
		return deviceName
	default:
		return poweredBy
	}
}

func (f *Factory) openContainer(ctx context.Context, session string) (*sqlstore.Container, error) {
	switch f.driver {
	case "postgres", "pgx":
		if f.dsn == "" {
			return nil, fmt.Errorf("store DSN is required for the postgres driver")
		}
		container, err := sqlstore.New(ctx, "pgx", f.dsn, nil)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return container, nil
	default:
		dsn := fmt.Sprintf("file:wa_session_%s.db?_pragma=foreign_keys(1)&_pragma=journal_mode=WAL&_pragma=synchronous=NORMAL", session)
		container, err := sqlstore.New(ctx, "sqlite", dsn, nil)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return container, nil
	}
}
