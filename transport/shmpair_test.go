package transport

import (
	"context"
	"testing"
	"time"
)

func TestShmpairCreateSegmentRejectsDuplicateID(t *testing.T) {
	client, _ := NewPair()
	if _, err := client.CreateSegment(1, 16); err != nil {
		t.Fatal(err)
	}
	if _, err := client.CreateSegment(1, 16); err == nil {
		t.Error("CreateSegment with a duplicate ID: got nil error, want an error")
	}
}

func TestShmpairConnectRemoteSeesPeerSegment(t *testing.T) {
	client, server := NewPair()
	if _, err := server.CreateSegment(42, 8); err != nil {
		t.Fatal(err)
	}
	seg, err := client.ConnectRemote(context.Background(), 0, 42, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if seg.ID() != 42 || seg.Size() != 8 {
		t.Errorf("ConnectRemote returned ID=%d Size=%d, want 42, 8", seg.ID(), seg.Size())
	}
}

func TestShmpairConnectRemoteTimesOut(t *testing.T) {
	client, _ := NewPair()
	_, err := client.ConnectRemote(context.Background(), 0, 99, 10*time.Millisecond)
	if err == nil {
		t.Error("ConnectRemote to a segment that's never created: got nil error, want a timeout error")
	}
}

func TestShmpairDMACopiesBytes(t *testing.T) {
	client, server := NewPair()
	src, err := client.CreateSegment(1, 4)
	if err != nil {
		t.Fatal(err)
	}
	dst, err := server.CreateSegment(2, 4)
	if err != nil {
		t.Fatal(err)
	}
	srcBuf, err := client.MapLocal(src, 0, 4)
	if err != nil {
		t.Fatal(err)
	}
	copy(srcBuf, []byte{1, 2, 3, 4})

	q, err := client.CreateDMAQueue(1)
	if err != nil {
		t.Fatal(err)
	}
	h, err := client.StartDMA(q, src, dst, 0, 4, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := client.WaitDMA(q, h, time.Second); err != nil {
		t.Fatal(err)
	}

	dstBuf, err := server.MapLocal(dst, 0, 4)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{1, 2, 3, 4}
	for i := range want {
		if dstBuf[i] != want[i] {
			t.Errorf("dstBuf[%d] = %d, want %d", i, dstBuf[i], want[i])
		}
	}
}

func TestShmpairCreateDMAQueueRejectsNonPositiveCapacity(t *testing.T) {
	client, _ := NewPair()
	if _, err := client.CreateDMAQueue(0); err == nil {
		t.Error("CreateDMAQueue(0): got nil error, want an error")
	}
}

func TestShmpairQueueAcceptsTransferAfterDraining(t *testing.T) {
	client, server := NewPair()
	src, _ := client.CreateSegment(1, 4)
	dst, _ := server.CreateSegment(2, 4)
	q, err := client.CreateDMAQueue(1)
	if err != nil {
		t.Fatal(err)
	}

	h1, err := client.StartDMA(q, src, dst, 0, 4, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := client.WaitDMA(q, h1, time.Second); err != nil {
		t.Fatal(err)
	}

	if _, err := client.StartDMA(q, src, dst, 0, 4, 0); err != nil {
		t.Errorf("StartDMA after the queue drained: %v, want nil error", err)
	}
}
