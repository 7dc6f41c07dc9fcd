package redis_client

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"
)

func TestRedisConfigLogFields_RedactsPassword(t *testing.T) {
	config := Config{Host: "127.0.0.1", Port: "6379", Password: "super-secret", DB: 2}

	logFields := redisConfigLogFields(config)
	if strings.Contains(logFields, config.Password) {
		t.Fatalf("log fields leak password: %s", logFields)
	}
	if !strings.Contains(logFields, "password=[REDACTED]") {
		t.Fatalf("log fields should contain redaction marker, got: %s", logFields)
	}
}

func TestRedisConfigLogFields_EmptyPassword(t *testing.T) {
	logFields := redisConfigLogFields(Config{Host: "127.0.0.1", Port: "6379"})
	if !strings.Contains(logFields, "password=<empty>") {
		t.Fatalf("expected empty password marker, got: %s", logFields)
	}
}

func TestNewClient_DoesNotDial(t *testing.T) {
	client := NewClient(Config{Host: "127.0.0.1", Port: "1"})
	defer client.Close()

	if got := client.Options().Addr; got != "127.0.0.1:1" {
		t.Fatalf("unexpected addr %s", got)
	}
}

func TestNewRedis_PingFailure(t *testing.T) {
	// grab a free port and close it so nothing is listening there
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	_, port, _ := net.SplitHostPort(ln.Addr().String())
	_ = ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = NewRedis(ctx, Config{Host: "127.0.0.1", Port: port, Password: "secret", DialTimeout: time.Second})
	if err == nil {
		t.Fatal("expected ping error")
	}
	if strings.Contains(err.Error(), "secret") {
		t.Fatalf("error leaks password: %v", err)
	}
}
