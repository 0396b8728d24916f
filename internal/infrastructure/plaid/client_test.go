package plaid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		ClientID:   "test-client-id",
		Secret:     "test-secret",
		ClientName: "LedgerLink",
	})
	c.baseURL = srv.URL
	return c, srv
}

func TestExchangePublicToken_Success(t *testing.T) {
	var sawCredentials bool

	mux := http.NewServeMux()
	mux.HandleFunc("/item/public_token/exchange", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		sawCredentials = body["client_id"] == "test-client-id" && body["secret"] == "test-secret"
		if body["public_token"] != "public-sandbox-token" {
			t.Errorf("public_token = %v", body["public_token"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-sandbox-abc",
			"item_id":      "item-123",
			"request_id":   "req-1",
		})
	})
	mux.HandleFunc("/item/get", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"item": map[string]any{"institution_id": "ins_1"},
		})
	})
	mux.HandleFunc("/institutions/get_by_id", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"institution": map[string]any{"name": "First Platypus Bank"},
		})
	})

	client, _ := testClient(t, mux)

	result, err := client.ExchangePublicToken(context.Background(), "public-sandbox-token")
	if err != nil {
		t.Fatalf("ExchangePublicToken() failed: %v", err)
	}

	if !sawCredentials {
		t.Error("request did not carry client credentials")
	}
	if result.AccessToken != "access-sandbox-abc" {
		t.Errorf("AccessToken = %q", result.AccessToken)
	}
	if result.ItemID != "item-123" {
		t.Errorf("ItemID = %q", result.ItemID)
	}
	if result.InstitutionName != "First Platypus Bank" {
		t.Errorf("InstitutionName = %q", result.InstitutionName)
	}
}

func TestExchangePublicToken_Rejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/item/public_token/exchange", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error_type":    "INVALID_INPUT",
			"error_code":    "INVALID_PUBLIC_TOKEN",
			"error_message": "provided public token is in an invalid format",
		})
	})

	client, _ := testClient(t, mux)

	_, err := client.ExchangePublicToken(context.Background(), "public-sandbox-unknown")
	if !errors.Is(err, ErrProviderRejected) {
		t.Errorf("error = %v, want ErrProviderRejected", err)
	}
}

func TestExchangePublicToken_ServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/item/public_token/exchange", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	client, _ := testClient(t, mux)

	_, err := client.ExchangePublicToken(context.Background(), "public-sandbox-token")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("error = %v, want ErrProviderUnavailable", err)
	}
}

func TestExchangePublicToken_NetworkError(t *testing.T) {
	client, srv := testClient(t, http.NotFoundHandler())
	srv.Close()

	_, err := client.ExchangePublicToken(context.Background(), "public-sandbox-token")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("error = %v, want ErrProviderUnavailable", err)
	}
}

func TestExchangePublicToken_InstitutionLookupFailureIsNonFatal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/item/public_token/exchange", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-sandbox-abc",
			"item_id":      "item-123",
		})
	})
	mux.HandleFunc("/item/get", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	client, _ := testClient(t, mux)

	result, err := client.ExchangePublicToken(context.Background(), "public-sandbox-token")
	if err != nil {
		t.Fatalf("ExchangePublicToken() failed: %v", err)
	}
	if result.AccessToken != "access-sandbox-abc" {
		t.Errorf("AccessToken = %q", result.AccessToken)
	}
	if result.InstitutionName != "" {
		t.Errorf("InstitutionName = %q, want empty", result.InstitutionName)
	}
}

func TestGetTransactions_Pagination(t *testing.T) {
	total := 3
	all := []Transaction{
		{TransactionID: "tx-1", Amount: 12.50, DateString: "2026-08-01", Name: "Coffee"},
		{TransactionID: "tx-2", Amount: 40.00, DateString: "2026-08-02", Name: "Groceries"},
		{TransactionID: "tx-3", Amount: -1500.00, DateString: "2026-08-03", Name: "Payroll"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/transactions/get", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			StartDate string `json:"start_date"`
			Options   struct {
				Offset int `json:"offset"`
			} `json:"options"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if body.StartDate != "2026-07-01" {
			t.Errorf("start_date = %q, want 2026-07-01", body.StartDate)
		}

		// Serve two transactions per page
		end := body.Options.Offset + 2
		if end > total {
			end = total
		}
		json.NewEncoder(w).Encode(TransactionsResponse{
			Transactions:      all[body.Options.Offset:end],
			TotalTransactions: total,
		})
	})

	client, _ := testClient(t, mux)

	resp, err := client.GetTransactions(context.Background(), "access-sandbox-abc", "2026-07-01")
	if err != nil {
		t.Fatalf("GetTransactions() failed: %v", err)
	}

	if len(resp.Transactions) != total {
		t.Fatalf("got %d transactions, want %d", len(resp.Transactions), total)
	}
	for i, tx := range resp.Transactions {
		if tx.TransactionID != fmt.Sprintf("tx-%d", i+1) {
			t.Errorf("transaction %d = %q, out of order", i, tx.TransactionID)
		}
	}
}

func TestGetTransactions_RevokedToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/transactions/get", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error_type":    "ITEM_ERROR",
			"error_code":    "ITEM_LOGIN_REQUIRED",
			"error_message": "the login details of this item have changed",
		})
	})

	client, _ := testClient(t, mux)

	_, err := client.GetTransactions(context.Background(), "access-sandbox-revoked", "2026-07-01")
	if !errors.Is(err, ErrProviderRejected) {
		t.Errorf("error = %v, want ErrProviderRejected", err)
	}
}

func TestTransaction_GetDate(t *testing.T) {
	tx := Transaction{DateString: "2026-08-15"}
	d, err := tx.GetDate()
	if err != nil {
		t.Fatalf("GetDate() failed: %v", err)
	}
	if d.Year() != 2026 || d.Month() != 8 || d.Day() != 15 {
		t.Errorf("GetDate() = %v", d)
	}

	empty := Transaction{}
	d, err = empty.GetDate()
	if err != nil || d != nil {
		t.Errorf("GetDate() on empty = (%v, %v), want (nil, nil)", d, err)
	}
}

func TestTransaction_PrimaryCategory(t *testing.T) {
	tests := []struct {
		name     string
		category []string
		want     string
	}{
		{"most specific wins", []string{"Food and Drink", "Restaurants", "Coffee Shop"}, "Coffee Shop"},
		{"single level", []string{"Travel"}, "Travel"},
		{"uncategorized", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := Transaction{Category: tt.category}
			if got := tx.PrimaryCategory(); got != tt.want {
				t.Errorf("PrimaryCategory() = %q, want %q", got, tt.want)
			}
		})
	}
}
