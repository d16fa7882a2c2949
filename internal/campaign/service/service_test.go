package service

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"carefund/internal/campaign/models"
	"carefund/internal/campaign/store"
	"carefund/internal/platform/config"
	registrymodels "carefund/internal/registry/models"
	registryservice "carefund/internal/registry/service"
	registrystore "carefund/internal/registry/store"
	id "carefund/pkg/domain"
	dErrors "carefund/pkg/domain-errors"
	"carefund/pkg/requestcontext"
)

var admin = id.Principal("admin")

type CampaignSuite struct {
	suite.Suite

	registry *registryservice.Service
	service  *Service
	now      time.Time

	healthVoter id.Principal
	daoVoter    id.Principal
}

func TestCampaignSuite(t *testing.T) {
	suite.Run(t, new(CampaignSuite))
}

func (s *CampaignSuite) SetupTest() {
	s.now = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	cfg := config.DefaultGovernance()
	registry, err := registryservice.New(registrystore.NewInMemoryStore(), cfg, admin)
	s.Require().NoError(err)
	s.registry = registry

	svc, err := New(store.NewInMemoryStore(), registry, cfg)
	s.Require().NoError(err)
	s.service = svc

	// One genesis member bootstraps the committee; one health and one dao
	// verifier are admitted through it.
	_, err = registry.ApplyAsGenesis(s.ctx(), "genesis-0", verifierDocs())
	s.Require().NoError(err)
	s.Require().NoError(registry.HandleGenesisApplication(s.ctx(), admin, "genesis-0", true))

	s.healthVoter = s.admitVerifier("doctor", id.VerifierTypeHealthProfessional)
	s.daoVoter = s.admitVerifier("dao-member", id.VerifierTypeDao)
}

func (s *CampaignSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *CampaignSuite) advance(d time.Duration) {
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

func (s *CampaignSuite) admitVerifier(p id.Principal, vtype id.VerifierType) id.Principal {
	_, err := s.registry.Apply(s.ctx(), p, vtype, verifierDocs())
	s.Require().NoError(err)
	s.Require().NoError(s.registry.VoteOnApplication(s.ctx(), "genesis-0", p, true))
	s.advance(7 * 24 * time.Hour)
	s.Require().NoError(s.registry.FinalizeApplication(s.ctx(), p))
	return p
}

func validParams() CreateParams {
	return CreateParams{
		TargetUSD: usd(1000),
		Duration:  30 * 24 * time.Hour,
		Comment:   "surgery and recovery costs",
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
	}
}

func usd(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), config.Decimals18)
}

func (s *CampaignSuite) createCampaign() id.CampaignID {
	campaign, err := s.service.CreateCampaign(s.ctx(), "patient", validParams())
	s.Require().NoError(err)
	return campaign.ID
}

func (s *CampaignSuite) TestCreateCampaignValidation() {
	params := validParams()
	params.TargetUSD = usd(10) // exactly the floor, must be strictly above
	_, err := s.service.CreateCampaign(s.ctx(), "patient", params)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	params = validParams()
	params.Comment = "   "
	_, err = s.service.CreateCampaign(s.ctx(), "patient", params)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	params = validParams()
	params.Documents.PatientPhoto = ""
	_, err = s.service.CreateCampaign(s.ctx(), "patient", params)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	params = validParams()
	params.PatientDetails.MobileNumber = ""
	_, err = s.service.CreateCampaign(s.ctx(), "patient", params)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *CampaignSuite) TestGuardianValidation() {
	params := validParams()
	params.Guardian = models.GuardianDetails{Guardian: "patient"}
	_, err := s.service.CreateCampaign(s.ctx(), "patient", params)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	params.Guardian = models.GuardianDetails{Guardian: "aunt"}
	_, err = s.service.CreateCampaign(s.ctx(), "patient", params)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	params.Guardian = models.GuardianDetails{
		Guardian:           "aunt",
		FullName:           "Aunt Doe",
		MobileNumber:       "+15550002222",
		ResidentialAddress: "2 Main St",
		GovernmentID:       "ID-100",
	}
	_, err = s.service.CreateCampaign(s.ctx(), "patient", params)
	s.Require().NoError(err)
}

func (s *CampaignSuite) TestCreateThenStatusPending() {
	campaignID := s.createCampaign()
	status, err := s.service.GetCampaignStatus(s.ctx(), campaignID)
	s.Require().NoError(err)
	s.Equal(id.CampaignStatusPending, status)

	campaign, err := s.service.GetCampaign(s.ctx(), campaignID)
	s.Require().NoError(err)
	s.Equal(uint64(1), campaign.HealthCountAtStart)
	s.Equal(uint64(2), campaign.DaoCountAtStart) // dao verifier + active genesis member
}

func (s *CampaignSuite) TestVoteRequiresApprovedVerifier() {
	campaignID := s.createCampaign()
	err := s.service.VoteOnCampaign(s.ctx(), "stranger", campaignID, true, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *CampaignSuite) TestNoVoteRequiresComment() {
	campaignID := s.createCampaign()
	err := s.service.VoteOnCampaign(s.ctx(), s.healthVoter, campaignID, false, "  ")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	s.Require().NoError(s.service.VoteOnCampaign(s.ctx(), s.healthVoter, campaignID, false, "documents look inconsistent"))
}

func (s *CampaignSuite) TestApprovalNeedsBothPartitions() {
	campaignID := s.createCampaign()

	// Only the health partition votes; the dao partition never reaches quorum.
	s.Require().NoError(s.service.VoteOnCampaign(s.ctx(), s.healthVoter, campaignID, true, ""))
	s.advance(7 * 24 * time.Hour)
	s.Require().NoError(s.service.FinalizeVoting(s.ctx(), campaignID))

	status, err := s.service.GetCampaignStatus(s.ctx(), campaignID)
	s.Require().NoError(err)
	s.Equal(id.CampaignStatusRejected, status)
}

func (s *CampaignSuite) TestApprovalWithBothPartitions() {
	campaignID := s.createCampaign()

	s.Require().NoError(s.service.VoteOnCampaign(s.ctx(), s.healthVoter, campaignID, true, ""))
	s.Require().NoError(s.service.VoteOnCampaign(s.ctx(), s.daoVoter, campaignID, true, ""))
	s.advance(7 * 24 * time.Hour)
	s.Require().NoError(s.service.FinalizeVoting(s.ctx(), campaignID))

	campaign, err := s.service.GetCampaign(s.ctx(), campaignID)
	s.Require().NoError(err)
	s.Equal(id.CampaignStatusActive, campaign.Status)
	s.Equal(s.now, campaign.StartTime)
	s.Len(campaign.HealthParticipants, 1)
	s.Len(campaign.DaoParticipants, 1)
}

func (s *CampaignSuite) TestGenesisVoterLandsInDaoPartition() {
	campaignID := s.createCampaign()

	s.Require().NoError(s.service.VoteOnCampaign(s.ctx(), "genesis-0", campaignID, true, ""))
	campaign, err := s.service.GetCampaign(s.ctx(), campaignID)
	s.Require().NoError(err)
	s.Equal(uint64(1), campaign.DaoYes)
	s.Zero(campaign.HealthYes)
	s.Len(campaign.DaoParticipants, 1)
}

func (s *CampaignSuite) TestDoubleVoteRejected() {
	campaignID := s.createCampaign()
	s.Require().NoError(s.service.VoteOnCampaign(s.ctx(), s.healthVoter, campaignID, true, ""))
	err := s.service.VoteOnCampaign(s.ctx(), s.healthVoter, campaignID, true, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *CampaignSuite) TestLateVoteRejected() {
	campaignID := s.createCampaign()
	s.advance(7*24*time.Hour + time.Second)
	err := s.service.VoteOnCampaign(s.ctx(), s.healthVoter, campaignID, true, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *CampaignSuite) TestAppealLifecycle() {
	campaignID := s.createCampaign()
	s.advance(7 * 24 * time.Hour)
	s.Require().NoError(s.service.FinalizeVoting(s.ctx(), campaignID))

	// Only the patient may appeal.
	err := s.service.AppealCampaign(s.ctx(), "stranger", campaignID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	for appeal := 1; appeal <= 2; appeal++ {
		s.Require().NoError(s.service.AppealCampaign(s.ctx(), "patient", campaignID))
		campaign, err := s.service.GetCampaign(s.ctx(), campaignID)
		s.Require().NoError(err)
		s.Equal(id.CampaignStatusPending, campaign.Status)
		s.Equal(appeal, campaign.AppealCount)
		s.Zero(campaign.HealthYes + campaign.HealthNo + campaign.DaoYes + campaign.DaoNo)
		s.Empty(campaign.Voted)

		s.advance(7 * 24 * time.Hour)
		s.Require().NoError(s.service.FinalizeVoting(s.ctx(), campaignID))
	}

	err = s.service.AppealCampaign(s.ctx(), "patient", campaignID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict), fmt.Sprintf("got %v", err))
}

func (s *CampaignSuite) TestVotersCanVoteAgainAfterAppeal() {
	campaignID := s.createCampaign()
	s.Require().NoError(s.service.VoteOnCampaign(s.ctx(), s.healthVoter, campaignID, false, "missing doctor's letter detail"))
	s.advance(7 * 24 * time.Hour)
	s.Require().NoError(s.service.FinalizeVoting(s.ctx(), campaignID))
	s.Require().NoError(s.service.AppealCampaign(s.ctx(), "patient", campaignID))

	s.Require().NoError(s.service.VoteOnCampaign(s.ctx(), s.healthVoter, campaignID, true, ""))
	campaign, err := s.service.GetCampaign(s.ctx(), campaignID)
	s.Require().NoError(err)
	s.Equal(uint64(1), campaign.HealthYes)
	s.Zero(campaign.HealthNo)
}

func (s *CampaignSuite) TestDocumentVisibility() {
	params := validParams()
	params.Consent = models.ConsentFlags{DiagnosisReport: true}
	campaign, err := s.service.CreateCampaign(s.ctx(), "patient", params)
	s.Require().NoError(err)

	// Verifiers see everything.
	docs, err := s.service.GetCampaignDocuments(s.ctx(), s.healthVoter, campaign.ID)
	s.Require().NoError(err)
	s.Equal(params.Documents, docs)

	// Non-verifiers see only consented references.
	docs, err = s.service.GetCampaignDocuments(s.ctx(), "stranger", campaign.ID)
	s.Require().NoError(err)
	s.Equal("ipfs://diagnosis", docs.DiagnosisReport)
	s.Empty(docs.DoctorsLetter)
	s.Empty(docs.GovernmentID)
	s.Empty(docs.PatientPhoto)
}

func (s *CampaignSuite) TestCampaignNotFound() {
	_, err := s.service.GetCampaign(s.ctx(), 404)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
