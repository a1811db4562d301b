package shard

import "testing"

func TestShardOf_KnownValues(t *testing.T) {
	// Expected values are hexdec(md5(id)[0:8]) % count.
	router := NewRouter(4)

	cases := []struct {
		orderID string
		want    int
	}{
		{"order-123", 2},
		{"550e8400-e29b-41d4-a716-446655440000", 2},
		{"abc", 0},
	}

	for _, tc := range cases {
		if got := router.ShardOf(tc.orderID); got != tc.want {
			t.Errorf("ShardOf(%q) = %d, want %d", tc.orderID, got, tc.want)
		}
	}
}

func TestShardOf_Deterministic(t *testing.T) {
	router := NewRouter(8)

	for _, id := range []string{"a", "order-1", "550e8400-e29b-41d4-a716-446655440000"} {
		first := router.ShardOf(id)
		for i := 0; i < 10; i++ {
			if got := router.ShardOf(id); got != first {
				t.Fatalf("ShardOf(%q) not deterministic: %d then %d", id, first, got)
			}
		}
	}
}

func TestShardOf_WithinRange(t *testing.T) {
	for _, count := range []int{1, 2, 4, 16} {
		router := NewRouter(count)
		for i := 0; i < 1000; i++ {
			id := "order-" + string(rune('a'+i%26)) + string(rune('0'+i%10))
			got := router.ShardOf(id)
			if got < 0 || got >= count {
				t.Fatalf("ShardOf(%q) = %d, out of [0, %d)", id, got, count)
			}
		}
	}
}

func TestNewRouter_DefaultCount(t *testing.T) {
	if got := NewRouter(0).Count(); got != DefaultCount {
		t.Errorf("expected default count %d, got %d", DefaultCount, got)
	}
	if got := NewRouter(-3).Count(); got != DefaultCount {
		t.Errorf("expected default count %d, got %d", DefaultCount, got)
	}
}
