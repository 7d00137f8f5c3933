package cache

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestDeletePrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	// More keys than one SCAN batch.
	for i := 0; i < scanBatch+20; i++ {
		mr.Set(fmt.Sprintf("fare:quote:v1:%d", i), "x")
	}
	mr.Set("fare:other", "keep")

	n, err := DeletePrefix(context.Background(), client, "fare:quote:v1:")
	if err != nil {
		t.Fatalf("DeletePrefix() error = %v", err)
	}
	if n != scanBatch+20 {
		t.Errorf("DeletePrefix() = %d, want %d", n, scanBatch+20)
	}
	if keys := mr.Keys(); len(keys) != 1 || keys[0] != "fare:other" {
		t.Errorf("remaining keys = %v, want [fare:other]", keys)
	}
}

func TestPing(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	if _, err := Ping(context.Background(), client); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	mr.Close()
	if _, err := Ping(context.Background(), client); err == nil {
		t.Error("Ping() error = nil after server closed")
	}
}
