package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"carefund/internal/feepolicy/service"
	"carefund/internal/platform/config"
	registrymodels "carefund/internal/registry/models"
	registryservice "carefund/internal/registry/service"
	registrystore "carefund/internal/registry/store"
	principalmw "carefund/pkg/platform/middleware/principal"
	"carefund/pkg/requestcontext"
	"carefund/pkg/testutil"
)

func TestCurrentRateViaHandler(t *testing.T) {
	router := newFeePolicyRouter(t)

	req := as(testutil.NewRequest(t, http.MethodGet, "/fee-policy"), "anyone", time.Now())
	rec := testutil.DoRequest(router, req)
	testutil.AssertStatusOK(t, rec)
	testutil.AssertJSONContains(t, rec, "fee_bps", float64(200))
}

func TestProposalLifecycleViaHandlers(t *testing.T) {
	router := newFeePolicyRouter(t)
	now := time.Now()

	// Only approved verifiers may propose.
	req := as(testutil.NewJSONRequest(t, http.MethodPost, "/fee-policy/proposals", proposeRequest{FeeBps: 250}), "stranger", now)
	rec := testutil.DoRequest(router, req)
	testutil.AssertStatusAndError(t, rec, http.StatusForbidden, "forbidden")

	// Out-of-range rates are rejected.
	req = as(testutil.NewJSONRequest(t, http.MethodPost, "/fee-policy/proposals", proposeRequest{FeeBps: 99}), "genesis-0", now)
	rec = testutil.DoRequest(router, req)
	testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "validation_error")

	req = as(testutil.NewJSONRequest(t, http.MethodPost, "/fee-policy/proposals", proposeRequest{FeeBps: 250}), "genesis-0", now)
	rec = testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rec, http.StatusCreated)

	req = as(testutil.NewJSONRequest(t, http.MethodPost, "/fee-policy/proposals/votes", voteRequest{Support: true}), "genesis-0", now)
	rec = testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rec, http.StatusNoContent)

	// Finalizing before the window closes is a conflict.
	req = as(testutil.NewRequest(t, http.MethodPost, "/fee-policy/proposals/finalize"), "anyone", now)
	rec = testutil.DoRequest(router, req)
	testutil.AssertStatusAndError(t, rec, http.StatusConflict, "conflict")

	after := now.Add(config.DefaultGovernance().FeeProposalWindow)
	req = as(testutil.NewRequest(t, http.MethodPost, "/fee-policy/proposals/finalize"), "anyone", after)
	rec = testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rec, http.StatusNoContent)

	req = as(testutil.NewRequest(t, http.MethodGet, "/fee-policy"), "anyone", after)
	rec = testutil.DoRequest(router, req)
	testutil.AssertStatusOK(t, rec)
	testutil.AssertJSONContains(t, rec, "fee_bps", float64(250))
}

func newFeePolicyRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := config.DefaultGovernance()
	registry, err := registryservice.New(registrystore.NewInMemoryStore(), cfg, "admin")
	if err != nil {
		t.Fatalf("failed to build registry service: %v", err)
	}

	// One approved genesis member is the entire electorate.
	ctx := requestcontext.WithTime(requestcontext.WithCaller(context.Background(), "admin"), time.Now())
	docs := registrymodels.Documents{
		FullName:     "Test Person",
		ContactInfo:  "test@example.com",
		GovernmentID: "gov-id-ref",
	}
	if _, err := registry.ApplyAsGenesis(ctx, "genesis-0", docs); err != nil {
		t.Fatalf("genesis application failed: %v", err)
	}
	if err := registry.HandleGenesisApplication(ctx, "admin", "genesis-0", true); err != nil {
		t.Fatalf("genesis approval failed: %v", err)
	}

	feePolicy, err := service.New(registry, cfg)
	if err != nil {
		t.Fatalf("failed to build fee policy service: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	h := New(feePolicy, logger)
	r := chi.NewRouter()
	r.Use(principalmw.Middleware(logger))
	h.Register(r)
	return r
}

func as(req *http.Request, principal string, now time.Time) *http.Request {
	req.Header.Set(principalmw.Header, principal)
	return testutil.AtTime(req, now)
}
