package session

import (
	"net/http"
	"sync"
	"testing"
)

func TestReplySendsExactlyOnce(t *testing.T) {
	var mu sync.Mutex
	var calls []int

	reply := NewReply(func(status int, body any) {
		mu.Lock()
		calls = append(calls, status)
		mu.Unlock()
	})

	if !reply.Send(http.StatusOK, "first") {
		t.Fatal("first Send should win")
	}
	if reply.Send(http.StatusInternalServerError, "second") {
		t.Fatal("second Send should lose")
	}
	if !reply.Sent() {
		t.Error("Sent() should report true after a send")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 1 || calls[0] != http.StatusOK {
		t.Errorf("write fn calls = %v, want exactly [200]", calls)
	}
}

func TestReplyConcurrentSenders(t *testing.T) {
	var mu sync.Mutex
	count := 0

	reply := NewReply(func(status int, body any) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wins := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wins <- reply.Send(http.StatusOK, nil)
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for won := range wins {
		if won {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("winners = %d, want 1", winners)
	}
	if count != 1 {
		t.Errorf("write fn invoked %d times, want 1", count)
	}
}

func TestReplyDoneClosesAfterSend(t *testing.T) {
	reply := NewReply(func(int, any) {})

	select {
	case <-reply.Done():
		t.Fatal("Done closed before any send")
	default:
	}

	reply.Send(http.StatusOK, nil)

	select {
	case <-reply.Done():
	default:
		t.Fatal("Done not closed after send")
	}
}

func TestNilReplyIsSafe(t *testing.T) {
	var reply *Reply
	if reply.Send(http.StatusOK, nil) {
		t.Error("nil reply Send should report false")
	}
	if !reply.Sent() {
		t.Error("nil reply should report already sent")
	}
}
