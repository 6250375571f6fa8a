package config

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"wanwatch/models"
)

var (
	ActionRules                = &actionRules{}
	ErrorActionRuleNoMatcher   = fmt.Errorf("action rule has no match field")
	defaultActionRulesFilePath = "action-rules.yaml"
)

// ActionRulesConfig is the YAML structure saved to disk. Rules are kept in
// file order because the first matching rule wins.
type ActionRulesConfig struct {
	Rules       []models.ActionRule     `yaml:"rules"`
	Substitutes []models.SubstituteName `yaml:"substituteNames"`
}

type actionRules struct {
	mu sync.Mutex
}

// GetConfig parses the action-rules YAML file, dropping rules that could
// never match and canonicalising MAC matchers.
func (a *actionRules) GetConfig(logger *zap.SugaredLogger) (ActionRulesConfig, error) {
	cfg, err := GetConfig[ActionRulesConfig](&a.mu, defaultActionRulesFilePath, func() ActionRulesConfig { return ActionRulesConfig{} })
	if err != nil {
		return ActionRulesConfig{}, err
	}

	kept := cfg.Rules[:0]
	for _, r := range cfg.Rules {
		if r.MatchMAC == "" && r.MatchIP == "" && r.MatchName == "" {
			logger.Warnf("Dropping action rule with no mac/ip/name matcher: %+v", r)
			continue
		}
		if r.MatchMAC != "" {
			if !models.ValidMAC(r.MatchMAC) {
				logger.Warnf("Dropping action rule with bad MAC %q", r.MatchMAC)
				continue
			}
			r.MatchMAC = string(models.NewMAC(r.MatchMAC))
		}
		kept = append(kept, r)
	}
	cfg.Rules = kept

	subs := cfg.Substitutes[:0]
	for _, s := range cfg.Substitutes {
		if s.Name == "" || (s.MAC == "" && s.IP == "") {
			logger.Warnf("Dropping substitute name with missing fields: %+v", s)
			continue
		}
		if s.MAC != "" {
			s.MAC = string(models.NewMAC(s.MAC))
		}
		subs = append(subs, s)
	}
	cfg.Substitutes = subs

	return cfg, nil
}

// SetConfig saves the action rules to disk.
func (a *actionRules) SetConfig(cfg ActionRulesConfig) error {
	return SetConfig[ActionRulesConfig](
		&a.mu,
		defaultActionRulesFilePath,
		func(v ActionRulesConfig) error {
			for _, r := range v.Rules {
				if r.MatchMAC == "" && r.MatchIP == "" && r.MatchName == "" {
					return ErrorActionRuleNoMatcher
				}
			}
			return nil
		},
		nil,
		cfg,
	)
}
