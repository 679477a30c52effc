package meow

import (
	"sync"
	"testing"
)

func TestSubListEmitAndCancel(t *testing.T) {
	var l subList[int]

	var got []int
	sub := l.add(func(v int) { got = append(got, v) })

	l.emit(1)
	l.emit(2)
	sub.Cancel()
	l.emit(3)
	sub.Cancel() // double cancel is a no-op

	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("received %v, want [1 2]", got)
	}
}

func TestSubListConcurrentEmit(t *testing.T) {
	var l subList[int]
	var mu sync.Mutex
	count := 0
	l.add(func(int) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.emit(1)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if count != 20 {
		t.Errorf("handler ran %d times, want 20", count)
	}
}

func TestDeviceLabel(t *testing.T) {
	tests := []struct {
		name, device, powered, want string
	}{
		{"both", "MyDevice", "MyServer", "MyServer: MyDevice"},
		{"device only", "MyDevice", "", "MyDevice"},
		{"powered only", "", "MyServer", "MyServer"},
		{"neither", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deviceLabel(tt.device, tt.powered)
			if got != tt.want {
				t.Errorf("deviceLabel = %q, want %q", got, tt.want)
			}
		})
	}
}
