package handler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"carefund/internal/bank"
	"carefund/internal/campaign/models"
	campaignservice "carefund/internal/campaign/service"
	campaignstore "carefund/internal/campaign/store"
	feepolicyservice "carefund/internal/feepolicy/service"
	"carefund/internal/ledger/service"
	"carefund/internal/ledger/store"
	"carefund/internal/oracle"
	"carefund/internal/platform/config"
	registrymodels "carefund/internal/registry/models"
	registryservice "carefund/internal/registry/service"
	registrystore "carefund/internal/registry/store"
	id "carefund/pkg/domain"
	principalmw "carefund/pkg/platform/middleware/principal"
	"carefund/pkg/requestcontext"
	"carefund/pkg/testutil"
)

func TestDonateViaHandlers(t *testing.T) {
	f := newLedgerFixture(t)
	campaignID := f.approveCampaign("patient")

	req := f.as(testutil.NewJSONRequest(t, http.MethodPost, fmt.Sprintf("/campaigns/%d/donations", campaignID), amountRequest{Amount: "5000"}), "donor")
	rec := testutil.DoRequest(f.router, req)
	testutil.AssertStatus(t, rec, http.StatusNoContent)

	// fee 100: health pool 30 accrues to the sole health participant.
	req = f.as(testutil.NewRequest(t, http.MethodGet, fmt.Sprintf("/campaigns/%d/fees/accrued", campaignID)), string(f.healthVoter))
	rec = testutil.DoRequest(f.router, req)
	testutil.AssertStatusOK(t, rec)
	testutil.AssertJSONContains(t, rec, "balance", "30")

	// Nothing is withdrawable until the campaign settles.
	req = f.as(testutil.NewRequest(t, http.MethodGet, "/fees/balance"), string(f.healthVoter))
	rec = testutil.DoRequest(f.router, req)
	testutil.AssertStatusOK(t, rec)
	testutil.AssertJSONContains(t, rec, "balance", "0")
}

func TestDonateErrorsMapped(t *testing.T) {
	f := newLedgerFixture(t)
	pendingID := f.createCampaign("patient")

	req := f.as(testutil.NewJSONRequest(t, http.MethodPost, fmt.Sprintf("/campaigns/%d/donations", pendingID), amountRequest{Amount: "5000"}), "donor")
	rec := testutil.DoRequest(f.router, req)
	testutil.AssertStatusAndError(t, rec, http.StatusConflict, "conflict")

	req = f.as(testutil.NewJSONRequest(t, http.MethodPost, fmt.Sprintf("/campaigns/%d/donations", pendingID), amountRequest{Amount: "not-a-number"}), "donor")
	rec = testutil.DoRequest(f.router, req)
	testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "bad_request")

	req = f.as(testutil.NewJSONRequest(t, http.MethodPost, "/campaigns/999/donations", amountRequest{Amount: "5000"}), "donor")
	rec = testutil.DoRequest(f.router, req)
	testutil.AssertStatusAndError(t, rec, http.StatusNotFound, "not_found")

	req = f.as(testutil.NewJSONRequest(t, http.MethodPost, "/campaigns/not-a-number/donations", amountRequest{Amount: "5000"}), "donor")
	rec = testutil.DoRequest(f.router, req)
	testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "bad_request")
}

func TestWithdrawErrorsMapped(t *testing.T) {
	f := newLedgerFixture(t)

	req := f.as(testutil.NewJSONRequest(t, http.MethodPost, "/fees/withdrawals", amountRequest{Amount: "-5"}), "someone")
	rec := testutil.DoRequest(f.router, req)
	testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "validation_error")

	req = f.as(testutil.NewJSONRequest(t, http.MethodPost, "/fees/withdrawals", amountRequest{Amount: "10"}), "someone")
	rec = testutil.DoRequest(f.router, req)
	testutil.AssertStatusAndError(t, rec, http.StatusConflict, "conflict")
}

type ledgerFixture struct {
	t         *testing.T
	router    http.Handler
	registry  *registryservice.Service
	campaigns *campaignservice.Service
	now       time.Time

	healthVoter id.Principal
	daoVoter    id.Principal
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	cfg := config.DefaultGovernance()
	cfg.MinDonationUSD = big.NewInt(1)

	registry, err := registryservice.New(registrystore.NewInMemoryStore(), cfg, "admin")
	if err != nil {
		t.Fatalf("failed to build registry service: %v", err)
	}
	campaigns, err := campaignservice.New(campaignstore.NewInMemoryStore(), registry, cfg)
	if err != nil {
		t.Fatalf("failed to build campaign service: %v", err)
	}
	feePolicy, err := feepolicyservice.New(registry, cfg)
	if err != nil {
		t.Fatalf("failed to build fee policy service: %v", err)
	}

	// Price 1 with zero decimals makes native and USD amounts identical.
	ledger, err := service.New(campaigns, registry, feePolicy, store.NewInMemoryStore(), bank.NewInMemoryBank(), oracle.NewFixed(big.NewInt(1), 0), cfg, "operator")
	if err != nil {
		t.Fatalf("failed to build ledger service: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := New(ledger, logger)
	r := chi.NewRouter()
	r.Use(principalmw.Middleware(logger))
	h.Register(r)

	f := &ledgerFixture{
		t:         t,
		router:    r,
		registry:  registry,
		campaigns: campaigns,
		now:       time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC),
	}

	if _, err := registry.ApplyAsGenesis(f.ctx(), "genesis-0", verifierDocs()); err != nil {
		t.Fatalf("genesis application failed: %v", err)
	}
	if err := registry.HandleGenesisApplication(f.ctx(), "admin", "genesis-0", true); err != nil {
		t.Fatalf("genesis approval failed: %v", err)
	}
	f.healthVoter = f.admitVerifier("doctor", id.VerifierTypeHealthProfessional)
	f.daoVoter = f.admitVerifier("dao-member", id.VerifierTypeDao)
	return f
}

func (f *ledgerFixture) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), f.now)
}

func (f *ledgerFixture) as(req *http.Request, principal string) *http.Request {
	req.Header.Set(principalmw.Header, principal)
	return testutil.AtTime(req, f.now)
}

func (f *ledgerFixture) admitVerifier(p id.Principal, vtype id.VerifierType) id.Principal {
	f.t.Helper()
	if _, err := f.registry.Apply(f.ctx(), p, vtype, verifierDocs()); err != nil {
		f.t.Fatalf("application for %s failed: %v", p, err)
	}
	if err := f.registry.VoteOnApplication(f.ctx(), "genesis-0", p, true); err != nil {
		f.t.Fatalf("vote on %s failed: %v", p, err)
	}
	f.now = f.now.Add(7 * 24 * time.Hour)
	if err := f.registry.FinalizeApplication(f.ctx(), p); err != nil {
		f.t.Fatalf("finalizing %s failed: %v", p, err)
	}
	return p
}

func (f *ledgerFixture) createCampaign(patient id.Principal) id.CampaignID {
	f.t.Helper()
	campaign, err := f.campaigns.CreateCampaign(f.ctx(), patient, campaignservice.CreateParams{
		TargetUSD: big.NewInt(100000),
		Duration:  30 * 24 * time.Hour,
		Comment:   "treatment costs",
		PatientDetails: models.PatientDetails{
			FullName:           "Pat Doe",
			MobileNumber:       "+15550001111",
			ResidentialAddress: "1 Main St",
			GovernmentID:       "ID-99",
		},
		Documents: models.Documents{
			DiagnosisReport: "ipfs://diagnosis",
			DoctorsLetter:   "ipfs://letter",
			GovernmentID:    "ipfs://gov-id",
			PatientPhoto:    "ipfs://photo",
		},
	})
	if err != nil {
		f.t.Fatalf("creating campaign failed: %v", err)
	}
	return campaign.ID
}

func (f *ledgerFixture) approveCampaign(patient id.Principal) id.CampaignID {
	f.t.Helper()
	campaignID := f.createCampaign(patient)
	for _, v := range []id.Principal{f.healthVoter, f.daoVoter} {
		if err := f.campaigns.VoteOnCampaign(f.ctx(), v, campaignID, true, ""); err != nil {
			f.t.Fatalf("vote by %s failed: %v", v, err)
		}
	}
	f.now = f.now.Add(7 * 24 * time.Hour)
	if err := f.campaigns.FinalizeVoting(f.ctx(), campaignID); err != nil {
		f.t.Fatalf("finalizing campaign voting failed: %v", err)
	}
	return campaignID
}

func verifierDocs() registrymodels.Documents {
	return registrymodels.Documents{
		FullName:         "Grace Hopper",
		ContactInfo:      "grace@example.com",
		GovernmentID:     "ID-55555",
		ProfessionalDocs: "license-101",
	}
}
