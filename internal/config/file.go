package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RewardsConfig carries the settings that drive role inference at
// registration.
type RewardsConfig struct {
	// OperatorDomains lists email domains whose users register as OPERATOR
	// when no explicit role is supplied.
	OperatorDomains []string `yaml:"operator_domains"`
}

// DefaultRewards returns the built-in operator domain allow-list.
func DefaultRewards() RewardsConfig {
	return RewardsConfig{OperatorDomains: []string{"zorlu.com", "enerji.com", "power.com"}}
}

// FileConfig mirrors the optional YAML configuration file:
//
//	rewards:
//	  operator_domains: [zorlu.com, enerji.com, power.com]
//	scheduler:
//	  campaign_expiry: "0 */5 * * * *"
type FileConfig struct {
	Rewards   RewardsConfig `yaml:"rewards"`
	Scheduler struct {
		CampaignExpiry string `yaml:"campaign_expiry"`
	} `yaml:"scheduler"`
}

// LoadFile parses the YAML file at path.
func LoadFile(path string) (FileConfig, error) {
	var fc FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse yaml: %w", err)
	}
	return fc, nil
}

// apply overlays non-empty file values on cfg. Domains are normalized to
// lower case without a leading '@'.
func (fc FileConfig) apply(cfg *Config) {
	if len(fc.Rewards.OperatorDomains) > 0 {
		domains := make([]string, 0, len(fc.Rewards.OperatorDomains))
		for _, d := range fc.Rewards.OperatorDomains {
			d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "@")
			if d != "" {
				domains = append(domains, d)
			}
		}
		cfg.Rewards.OperatorDomains = domains
	}
	if fc.Scheduler.CampaignExpiry != "" {
		cfg.CampaignExpiryCron = fc.Scheduler.CampaignExpiry
	}
}
