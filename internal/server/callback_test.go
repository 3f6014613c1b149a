package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/trackcast/internal/shared"
)

func TestCallbackHandler(t *testing.T) {
	t.Run("Valid Redirect", func(t *testing.T) {
		handler := NewCallbackHandler("expected_state")

		req := httptest.NewRequest(http.MethodGet, "/callback?code=auth_code&state=expected_state", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		code, err := handler.Wait(context.Background(), time.Second)
		if err != nil {
			t.Fatalf("expected a code, got %v", err)
		}
		if code != "auth_code" {
			t.Errorf("expected auth_code, got %q", code)
		}
	})

	t.Run("Provider Error", func(t *testing.T) {
		handler := NewCallbackHandler("expected_state")

		req := httptest.NewRequest(http.MethodGet, "/callback?error=access_denied", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Missing Code", func(t *testing.T) {
		handler := NewCallbackHandler("expected_state")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=expected_state", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("State Mismatch", func(t *testing.T) {
		handler := NewCallbackHandler("expected_state")

		req := httptest.NewRequest(http.MethodGet, "/callback?code=auth_code&state=forged", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if _, err := handler.Wait(ctx, 10*time.Millisecond); err == nil {
			t.Error("expected no code to be deposited on a state mismatch")
		}
	})

	t.Run("Second Code Replaces The First", func(t *testing.T) {
		handler := NewCallbackHandler("expected_state")

		for _, code := range []string{"first_code", "second_code"} {
			req := httptest.NewRequest(http.MethodGet, "/callback?code="+code+"&state=expected_state", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200 for %s, got %d", code, rec.Code)
			}
		}

		code, err := handler.Wait(context.Background(), time.Second)
		if err != nil {
			t.Fatalf("expected a code, got %v", err)
		}
		if code != "second_code" {
			t.Errorf("expected the newer code to win, got %q", code)
		}
	})

	t.Run("Wait", func(t *testing.T) {
		t.Run("Timeout", func(t *testing.T) {
			handler := NewCallbackHandler("expected_state")

			_, err := handler.Wait(context.Background(), 10*time.Millisecond)
			if !errors.Is(err, shared.ErrTimeout) {
				t.Errorf("expected ErrTimeout, got %v", err)
			}
		})

		t.Run("Context Cancelled", func(t *testing.T) {
			handler := NewCallbackHandler("expected_state")

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := handler.Wait(ctx, time.Second)
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		})
	})
}
