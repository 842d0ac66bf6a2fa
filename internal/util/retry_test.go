package util

import (
	"errors"
	"testing"
)

func TestRetry_SuccessImmediate(t *testing.T) {
	result, err := Retry(3, func() (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if result != 42 {
		t.Fatalf("expected 42, got %d", result)
	}
}

func TestRetry_SuccessAfterRetries(t *testing.T) {
	calls := 0
	result, err := Retry(3, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 99, nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if result != 99 {
		t.Fatalf("expected 99, got %d", result)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_PersistentFailure(t *testing.T) {
	calls := 0
	_, err := Retry(3, func() (int, error) {
		calls++
		return 0, errors.New("persistent")
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Error() != "persistent" {
		t.Fatalf("expected persistent error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_MaxTriesZeroOrNegative(t *testing.T) {
	calls := 0
	_, err := Retry(0, func() (int, error) {
		calls++
		return 0, errors.New("fail")
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}
