package service

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"carefund/internal/bank"
	"carefund/internal/campaign/models"
	campaignservice "carefund/internal/campaign/service"
	campaignstore "carefund/internal/campaign/store"
	feepolicyservice "carefund/internal/feepolicy/service"
	"carefund/internal/ledger/store"
	"carefund/internal/oracle"
	"carefund/internal/platform/config"
	registrymodels "carefund/internal/registry/models"
	registryservice "carefund/internal/registry/service"
	registrystore "carefund/internal/registry/store"
	id "carefund/pkg/domain"
	dErrors "carefund/pkg/domain-errors"
	"carefund/pkg/requestcontext"
)

var (
	admin    = id.Principal("admin")
	operator = id.Principal("operator")
)

type LedgerSuite struct {
	suite.Suite

	registry  *registryservice.Service
	campaigns *campaignservice.Service
	bank      *bank.InMemoryBank
	fees      *store.InMemoryStore
	oracle    *oracle.Fixed
	service   *Service
	now       time.Time

	healthVoter id.Principal
	daoVoter    id.Principal
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.now = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	cfg := config.DefaultGovernance()
	// A one-wei floor keeps donation amounts small enough to reason about
	// remainder arithmetic exactly.
	cfg.MinDonationUSD = big.NewInt(1)

	registry, err := registryservice.New(registrystore.NewInMemoryStore(), cfg, admin)
	s.Require().NoError(err)
	s.registry = registry

	campaigns, err := campaignservice.New(campaignstore.NewInMemoryStore(), registry, cfg)
	s.Require().NoError(err)
	s.campaigns = campaigns

	feePolicy, err := feepolicyservice.New(registry, cfg)
	s.Require().NoError(err)

	s.bank = bank.NewInMemoryBank()
	s.fees = store.NewInMemoryStore()

	// Price 1 with zero decimals makes native and USD amounts identical.
	s.oracle = oracle.NewFixed(big.NewInt(1), 0)
	ledger, err := New(campaigns, registry, feePolicy, s.fees, s.bank, s.oracle, cfg, operator)
	s.Require().NoError(err)
	s.service = ledger

	_, err = registry.ApplyAsGenesis(s.ctx(), "genesis-0", verifierDocs())
	s.Require().NoError(err)
	s.Require().NoError(registry.HandleGenesisApplication(s.ctx(), admin, "genesis-0", true))

	s.healthVoter = s.admitVerifier("doctor", id.VerifierTypeHealthProfessional)
	s.daoVoter = s.admitVerifier("dao-member", id.VerifierTypeDao)
}

func (s *LedgerSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *LedgerSuite) advance(d time.Duration) {
	s.now = s.now.Add(d)
}

func verifierDocs() registrymodels.Documents {
	return registrymodels.Documents{
		FullName:         "Grace Hopper",
		ContactInfo:      "grace@example.com",
		GovernmentID:     "ID-55555",
		ProfessionalDocs: "license-101",
	}
}

func (s *LedgerSuite) admitVerifier(p id.Principal, vtype id.VerifierType) id.Principal {
	_, err := s.registry.Apply(s.ctx(), p, vtype, verifierDocs())
	s.Require().NoError(err)
	s.Require().NoError(s.registry.VoteOnApplication(s.ctx(), "genesis-0", p, true))
	s.advance(7 * 24 * time.Hour)
	s.Require().NoError(s.registry.FinalizeApplication(s.ctx(), p))
	return p
}

// approveCampaign walks a campaign from submission through approval with the
// given voters and returns its ID. The funding window opens at the current
// suite time.
func (s *LedgerSuite) approveCampaign(patient id.Principal, target *big.Int, voters ...id.Principal) id.CampaignID {
	campaign, err := s.campaigns.CreateCampaign(s.ctx(), patient, campaignservice.CreateParams{
		TargetUSD: target,
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
	s.Require().NoError(err)
	for _, v := range voters {
		s.Require().NoError(s.campaigns.VoteOnCampaign(s.ctx(), v, campaign.ID, true, ""))
	}
	s.advance(7 * 24 * time.Hour)
	s.Require().NoError(s.campaigns.FinalizeVoting(s.ctx(), campaign.ID))
	status, err := s.campaigns.GetCampaignStatus(s.ctx(), campaign.ID)
	s.Require().NoError(err)
	s.Require().Equal(id.CampaignStatusActive, status)
	return campaign.ID
}

func (s *LedgerSuite) TestDonateRejectsPendingCampaign() {
	campaign, err := s.campaigns.CreateCampaign(s.ctx(), "patient", campaignservice.CreateParams{
		TargetUSD: big.NewInt(1000),
		Duration:  time.Hour,
		Comment:   "treatment costs",
		PatientDetails: models.PatientDetails{
			FullName: "Pat Doe", MobileNumber: "+1", ResidentialAddress: "1 Main St", GovernmentID: "ID-99",
		},
		Documents: models.Documents{
			DiagnosisReport: "a", DoctorsLetter: "b", GovernmentID: "c", PatientPhoto: "d",
		},
	})
	s.Require().NoError(err)

	err = s.service.Donate(s.ctx(), "donor", campaign.ID, big.NewInt(5000))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *LedgerSuite) TestDonateBelowFloor() {
	campaignID := s.approveCampaign("patient", big.NewInt(1000), s.healthVoter, s.daoVoter)

	err := s.service.Donate(s.ctx(), "donor", campaignID, big.NewInt(0))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	// With four price decimals a 500-unit donation converts to zero USD,
	// under the floor.
	s.oracle.SetPrice(big.NewInt(1), 4)
	err = s.service.Donate(s.ctx(), "donor", campaignID, big.NewInt(500))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	s.oracle.SetPrice(big.NewInt(1), 0)
	s.Require().NoError(s.service.Donate(s.ctx(), "donor", campaignID, big.NewInt(5000)))
}

// TestDonationFloorBoundary checks the production 10 USD floor exactly: one
// unit under fails, exactly at the floor succeeds.
func (s *LedgerSuite) TestDonationFloorBoundary() {
	campaignID := s.approveCampaign("patient", usd(1000), s.healthVoter, s.daoVoter)

	cfg := config.DefaultGovernance()
	feePolicy, err := feepolicyservice.New(s.registry, cfg)
	s.Require().NoError(err)
	ledger, err := New(s.campaigns, s.registry, feePolicy, s.fees, s.bank, s.oracle, cfg, operator)
	s.Require().NoError(err)

	below := new(big.Int).Sub(cfg.MinDonationUSD, big.NewInt(1))
	err = ledger.Donate(s.ctx(), "donor", campaignID, below)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	s.Require().NoError(ledger.Donate(s.ctx(), "donor", campaignID, new(big.Int).Set(cfg.MinDonationUSD)))

	campaign, err := s.campaigns.GetCampaign(s.ctx(), campaignID)
	s.Require().NoError(err)
	s.Zero(campaign.DonatedUSD.Cmp(cfg.MinDonationUSD))
}

func (s *LedgerSuite) TestDonateAtomicOnTransferFailure() {
	campaignID := s.approveCampaign("patient", usd(1000), s.healthVoter, s.daoVoter)

	s.bank.FailTransfersTo("patient", true)
	err := s.service.Donate(s.ctx(), "donor", campaignID, big.NewInt(5000))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTransferFailed))

	campaign, err := s.campaigns.GetCampaign(s.ctx(), campaignID)
	s.Require().NoError(err)
	s.Zero(campaign.DonatedUSD.Sign())
	s.Zero(campaign.TotalFeeCollected.Sign())
	s.Zero(campaign.HealthAccumulator.Sign())
	s.Zero(campaign.DaoAccumulator.Sign())
	s.Empty(campaign.Donors)
}

func (s *LedgerSuite) TestFeeSplitWithRemainders() {
	// Three dao-partition participants make the dao pool divide unevenly.
	dao2 := s.admitVerifier("dao-2", id.VerifierTypeDao)
	dao3 := s.admitVerifier("dao-3", id.VerifierTypeDao)
	campaignID := s.approveCampaign("patient", usd(1000), s.healthVoter, s.daoVoter, dao2, dao3)

	// 5000 at 200 bps is a fee of exactly 100.
	s.Require().NoError(s.service.Donate(s.ctx(), "donor", campaignID, big.NewInt(5000)))

	campaign, err := s.campaigns.GetCampaign(s.ctx(), campaignID)
	s.Require().NoError(err)

	// Health pool 30 to a single participant; dao pool 40 splits 13 each
	// across three with remainder 1; operator keeps 30 residual + 1.
	s.Equal(int64(30), campaign.HealthAccumulator.Int64())
	s.Equal(int64(13), campaign.DaoAccumulator.Int64())
	s.Equal(int64(4900), s.bank.BalanceOf("patient").Int64())
	s.Equal(int64(31), s.bank.BalanceOf(operator).Int64())

	// Settle and check conservation: 30 + 3x13 + 31 == 100.
	s.advance(31 * 24 * time.Hour)
	s.Require().NoError(s.service.FinalizeCampaignIfExpired(s.ctx(), campaignID))

	total := int64(31)
	for _, p := range []id.Principal{s.healthVoter, s.daoVoter, dao2, dao3} {
		balance, err := s.service.GetFeeBalance(s.ctx(), p)
		s.Require().NoError(err)
		total += balance.Int64()
	}
	s.Equal(int64(100), total)
}

func (s *LedgerSuite) TestOperatorKeepsResidualOnly() {
	// One participant per partition: no truncation remainders, the operator
	// keeps just the structural 30 percent residual.
	campaignID := s.approveCampaign("patient", usd(1000), s.healthVoter, s.daoVoter)

	s.Require().NoError(s.service.Donate(s.ctx(), "donor", campaignID, big.NewInt(5000)))
	s.Equal(int64(30), s.bank.BalanceOf(operator).Int64())
}

func TestSplitPool(t *testing.T) {
	perShare, remainder := splitPool(big.NewInt(100), 3)
	if perShare.Int64() != 33 || remainder.Int64() != 1 {
		t.Fatalf("expected 33 rem 1, got %s rem %s", perShare, remainder)
	}

	perShare, remainder = splitPool(big.NewInt(100), 0)
	if perShare.Sign() != 0 || remainder.Int64() != 100 {
		t.Fatalf("empty partition must forfeit the whole pool, got %s rem %s", perShare, remainder)
	}

	perShare, remainder = splitPool(big.NewInt(0), 2)
	if perShare.Sign() != 0 || remainder.Sign() != 0 {
		t.Fatalf("zero pool must split to zero, got %s rem %s", perShare, remainder)
	}
}

func (s *LedgerSuite) TestDonationReachingTargetCompletes() {
	campaignID := s.approveCampaign("patient", big.NewInt(2_000_000), s.healthVoter, s.daoVoter)

	s.Require().NoError(s.service.Donate(s.ctx(), "donor", campaignID, big.NewInt(3_000_000)))

	campaign, err := s.campaigns.GetCampaign(s.ctx(), campaignID)
	s.Require().NoError(err)
	s.Equal(id.CampaignStatusCompleted, campaign.Status)
	s.True(campaign.FeesDistributed)

	// fee = 60000: health pool 18000, dao pool 24000.
	healthBalance, err := s.service.GetFeeBalance(s.ctx(), s.healthVoter)
	s.Require().NoError(err)
	s.Equal(int64(18000), healthBalance.Int64())

	// Settling again must not double-credit.
	s.Require().NoError(s.service.SettleFees(s.ctx(), campaignID))
	healthBalance, err = s.service.GetFeeBalance(s.ctx(), s.healthVoter)
	s.Require().NoError(err)
	s.Equal(int64(18000), healthBalance.Int64())

	// A completed campaign accepts no further donations.
	err = s.service.Donate(s.ctx(), "donor", campaignID, big.NewInt(5000))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *LedgerSuite) TestFinalizeCampaignIfExpired() {
	campaignID := s.approveCampaign("patient", usd(1000), s.healthVoter, s.daoVoter)

	// Not expired yet: a no-op.
	s.Require().NoError(s.service.FinalizeCampaignIfExpired(s.ctx(), campaignID))
	status, err := s.campaigns.GetCampaignStatus(s.ctx(), campaignID)
	s.Require().NoError(err)
	s.Equal(id.CampaignStatusActive, status)

	s.advance(31 * 24 * time.Hour)
	s.Require().NoError(s.service.FinalizeCampaignIfExpired(s.ctx(), campaignID))
	status, err = s.campaigns.GetCampaignStatus(s.ctx(), campaignID)
	s.Require().NoError(err)
	s.Equal(id.CampaignStatusCompleted, status)
}

func (s *LedgerSuite) TestWithdrawFees() {
	s.Require().NoError(s.fees.Credit(s.ctx(), s.healthVoter, big.NewInt(100)))

	err := s.service.WithdrawFees(s.ctx(), s.healthVoter, big.NewInt(0))
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	err = s.service.WithdrawFees(s.ctx(), s.healthVoter, big.NewInt(200))
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	// Transfer failure restores the debited balance.
	s.bank.FailTransfersTo(s.healthVoter, true)
	err = s.service.WithdrawFees(s.ctx(), s.healthVoter, big.NewInt(40))
	s.True(dErrors.HasCode(err, dErrors.CodeTransferFailed))
	balance, err := s.service.GetFeeBalance(s.ctx(), s.healthVoter)
	s.Require().NoError(err)
	s.Equal(int64(100), balance.Int64())

	s.bank.FailTransfersTo(s.healthVoter, false)
	s.Require().NoError(s.service.WithdrawFees(s.ctx(), s.healthVoter, big.NewInt(40)))
	balance, err = s.service.GetFeeBalance(s.ctx(), s.healthVoter)
	s.Require().NoError(err)
	s.Equal(int64(60), balance.Int64())
	s.Equal(int64(40), s.bank.BalanceOf(s.healthVoter).Int64())
}

func (s *LedgerSuite) TestAutoDaoPromotionThroughDonations() {
	threshold := 5
	for i := 0; i < threshold; i++ {
		patient := id.Principal(fmt.Sprintf("patient-%d", i))
		campaignID := s.approveCampaign(patient, usd(1000), s.healthVoter, s.daoVoter)
		s.Require().NoError(s.service.Donate(s.ctx(), "whale", campaignID, big.NewInt(5000)))
	}
	s.True(s.registry.IsApprovedVerifier(s.ctx(), "whale"))

	rec, err := s.registry.GetVerifier(s.ctx(), "whale")
	s.Require().NoError(err)
	s.Equal(id.VerifierTypeAutoDao, rec.Type)
}

// TestEndToEnd walks the whole platform lifecycle: genesis bootstrap, two
// verifiers admitted, a campaign approved by both, a donation below target,
// accrual, expiry settlement, and exact withdrawals down to zero.
func (s *LedgerSuite) TestEndToEnd() {
	campaignID := s.approveCampaign("patient", usd(1000), s.healthVoter, s.daoVoter)

	s.Require().NoError(s.service.Donate(s.ctx(), "donor", campaignID, big.NewInt(5000)))

	status, err := s.campaigns.GetCampaignStatus(s.ctx(), campaignID)
	s.Require().NoError(err)
	s.Equal(id.CampaignStatusActive, status)

	// fee 100: health pool 30 to the doctor, dao pool 40 to the dao member.
	accrued, err := s.service.GetAccruedFees(s.ctx(), campaignID, s.healthVoter)
	s.Require().NoError(err)
	s.Equal(int64(30), accrued.Int64())
	accrued, err = s.service.GetAccruedFees(s.ctx(), campaignID, s.daoVoter)
	s.Require().NoError(err)
	s.Equal(int64(40), accrued.Int64())

	s.advance(31 * 24 * time.Hour)
	s.Require().NoError(s.service.FinalizeCampaignIfExpired(s.ctx(), campaignID))

	s.Require().NoError(s.service.WithdrawFees(s.ctx(), s.healthVoter, big.NewInt(30)))
	s.Require().NoError(s.service.WithdrawFees(s.ctx(), s.daoVoter, big.NewInt(40)))

	for _, p := range []id.Principal{s.healthVoter, s.daoVoter} {
		balance, err := s.service.GetFeeBalance(s.ctx(), p)
		s.Require().NoError(err)
		s.Zero(balance.Sign())
	}
	s.Equal(int64(30), s.bank.BalanceOf(s.healthVoter).Int64())
	s.Equal(int64(40), s.bank.BalanceOf(s.daoVoter).Int64())
}

func usd(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), config.Decimals18)
}
