package application

import (
	"context"
	"strings"

	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/domain"
)

// updateParams runs one authority-gated mutation of the stored protocol
// parameters. The mutated set is validated as a whole before it replaces the
// stored one, so a bad field can never leave params half-updated.
func (s *Service) updateParams(ctx context.Context, actor Actor, requestHash string, mutate func(*domain.Params)) (domain.Params, error) {
	if err := s.requireMutatingActor(actor); err != nil {
		return domain.Params{}, err
	}
	if _, err := s.requireAuthority(ctx, actor); err != nil {
		return domain.Params{}, err
	}
	var cached domain.Params
	if ok, err := s.replayIdempotent(ctx, actor.IdempotencyKey, requestHash, &cached); err != nil {
		return domain.Params{}, err
	} else if ok {
		return cached, nil
	}
	if err := s.reserveIdempotency(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return domain.Params{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	params, err := s.params.Get(ctx)
	if err != nil {
		return domain.Params{}, err
	}
	mutate(&params)
	if err := params.Validate(); err != nil {
		return domain.Params{}, err
	}
	if err := s.params.Put(ctx, params); err != nil {
		return domain.Params{}, err
	}
	_ = s.completeIdempotencyJSON(ctx, actor.IdempotencyKey, 200, params)
	return params, nil
}

func (s *Service) UpdateStakes(ctx context.Context, actor Actor, input UpdateStakesInput) (domain.Params, error) {
	return s.updateParams(ctx, actor, hashJSON(struct {
		Op string `json:"op"`
		In UpdateStakesInput
	}{"stakes", input}), func(p *domain.Params) {
		p.ChallengerStake = input.ChallengerStake
		p.RespondentStake = input.RespondentStake
	})
}

func (s *Service) UpdateFeeRate(ctx context.Context, actor Actor, input UpdateFeeRateInput) (domain.Params, error) {
	return s.updateParams(ctx, actor, hashJSON(struct {
		Op string `json:"op"`
		In UpdateFeeRateInput
	}{"fee_rate", input}), func(p *domain.Params) {
		p.FeeRateBps = input.FeeRateBps
	})
}

func (s *Service) UpdateTreasury(ctx context.Context, actor Actor, input UpdateTreasuryInput) (domain.Params, error) {
	treasury := strings.TrimSpace(input.Treasury)
	return s.updateParams(ctx, actor, hashJSON(struct {
		Op string `json:"op"`
		In string `json:"treasury"`
	}{"treasury", treasury}), func(p *domain.Params) {
		p.Treasury = treasury
	})
}

func (s *Service) UpdateJuryParameters(ctx context.Context, actor Actor, input UpdateJuryParametersInput) (domain.Params, error) {
	return s.updateParams(ctx, actor, hashJSON(struct {
		Op string `json:"op"`
		In UpdateJuryParametersInput
	}{"jury", input}), func(p *domain.Params) {
		p.MinJurorReputation = input.MinJurorReputation
		p.MaxActiveAssignments = input.MaxActiveAssignments
		p.JurySize = input.JurySize
	})
}

func (s *Service) UpdateIncentives(ctx context.Context, actor Actor, input UpdateIncentivesInput) (domain.Params, error) {
	return s.updateParams(ctx, actor, hashJSON(struct {
		Op string `json:"op"`
		In UpdateIncentivesInput
	}{"incentives", input}), func(p *domain.Params) {
		p.MajorityReward = input.MajorityReward
		p.MinoritySlash = input.MinoritySlash
		p.NoVoteSlash = input.NoVoteSlash
	})
}

// TransferAuthority hands the resolving-authority role to a new identity.
// The transfer is immediate: the caller loses every authority-gated
// operation as soon as the write lands.
func (s *Service) TransferAuthority(ctx context.Context, actor Actor, input TransferAuthorityInput) (domain.Params, error) {
	authority := strings.TrimSpace(input.Authority)
	return s.updateParams(ctx, actor, hashJSON(struct {
		Op string `json:"op"`
		In string `json:"authority"`
	}{"authority", authority}), func(p *domain.Params) {
		p.Authority = authority
	})
}

func (s *Service) GetParams(ctx context.Context, actor Actor) (domain.Params, error) {
	if err := s.requireActor(actor); err != nil {
		return domain.Params{}, err
	}
	return s.params.Get(ctx)
}
