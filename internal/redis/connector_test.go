package redis

import (
	"context"
	"testing"
	"time"

	"github.com/MrSnakeDoc/tokendock/internal/logger"
)

func validOptions() Options {
	return Options{
		Addr:           "127.0.0.1:1",
		ConnectTimeout: 50 * time.Millisecond,
		RetryInterval:  10 * time.Millisecond,
		MaxWait:        20 * time.Millisecond,
		PingTimeout:    10 * time.Millisecond,
		DialTimeout:    10 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr bool
	}{
		{"valid", func(*Options) {}, false},
		{"missing addr", func(o *Options) { o.Addr = "" }, true},
		{"zero connect timeout", func(o *Options) { o.ConnectTimeout = 0 }, true},
		{"zero retry interval", func(o *Options) { o.RetryInterval = 0 }, true},
		{"zero max wait", func(o *Options) { o.MaxWait = 0 }, true},
		{"zero ping timeout", func(o *Options) { o.PingTimeout = 0 }, true},
		{"negative warn threshold", func(o *Options) { o.WarnThreshold = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOptions()
			tt.mutate(&opts)
			err := opts.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNextWait(t *testing.T) {
	tests := []struct {
		d, max, want time.Duration
	}{
		{time.Second, 10 * time.Second, 2 * time.Second},
		{4 * time.Second, 5 * time.Second, 5 * time.Second},
		{5 * time.Second, 5 * time.Second, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := nextWait(tt.d, tt.max); got != tt.want {
			t.Errorf("nextWait(%v, %v) = %v, want %v", tt.d, tt.max, got, tt.want)
		}
	}
}

func TestConnectGivesUp(t *testing.T) {
	// nothing listens on port 1
	start := time.Now()
	client, err := Connect(context.Background(), validOptions(), logger.Nop())
	if err == nil {
		t.Fatal("Connect() should fail when redis is unreachable")
	}
	if client != nil {
		t.Error("Connect() should not return a client on failure")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Connect() took %v, should respect ConnectTimeout", elapsed)
	}
}

func TestConnectInvalidOptions(t *testing.T) {
	if _, err := Connect(context.Background(), Options{}, logger.Nop()); err == nil {
		t.Error("Connect() with zero options should fail")
	}
}
