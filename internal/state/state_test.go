package state

import (
	"errors"
	"testing"
	"time"
)

func TestFocusTrimmed(t *testing.T) {
	s := NewState("  Safe Token ")
	if got := s.Focus(); got != "Safe Token" {
		t.Fatalf("focus got %q want %q", got, "Safe Token")
	}
	if c := s.SetFocus(" USD Coin"); c != "USD Coin" {
		t.Fatalf("canon got %q", c)
	}
	if s.Focus() != "USD Coin" {
		t.Fatalf("state focus got %q", s.Focus())
	}
}

func TestRecordRender(t *testing.T) {
	s := NewState("x")
	if s.LastRenderOK() {
		t.Fatal("no render yet")
	}
	now := time.Now()
	s.RecordRender(now, nil)
	if !s.LastRenderOK() {
		t.Fatal("want ok after success")
	}
	at, msg := s.LastRender()
	if !at.Equal(now) || msg != "" {
		t.Fatalf("got %v %q", at, msg)
	}
	s.RecordRender(now.Add(time.Second), errors.New("boom"))
	if s.LastRenderOK() {
		t.Fatal("want not ok after failure")
	}
	if _, msg := s.LastRender(); msg != "boom" {
		t.Fatalf("error got %q", msg)
	}
}
