package room

import "testing"

func TestSendLatest_EvictsOldestWhenFull(t *testing.T) {
	ch := make(chan []byte, 2)
	for _, s := range []string{"a", "b", "c"} {
		sendLatest(ch, []byte(s))
	}
	if got := string(<-ch); got != "b" {
		t.Fatalf("first = %q, want oldest evicted", got)
	}
	if got := string(<-ch); got != "c" {
		t.Fatalf("second = %q", got)
	}
}

func TestSendLatest_UnbufferedDropsInsteadOfSpinning(t *testing.T) {
	ch := make(chan []byte)
	sendLatest(ch, []byte("x")) // must return, nothing to evict

	select {
	case b := <-ch:
		t.Fatalf("unexpected frame %q", b)
	default:
	}
}

func TestSendLatest_NilChannelIgnored(t *testing.T) {
	sendLatest(nil, []byte("x"))
}
