package lucene90

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// DISIConfiguration is the yaml configuration of the doc-id block writer.
type DISIConfiguration struct {
	// DenseRankPower is the rank granularity of DENSE blocks: 7-15, or
	// -1 to write no rank table. Defaults to DEFAULT_DENSE_RANK_POWER.
	DenseRankPower *int8 `yaml:"denseRankPower"`
}

// RankPower returns the configured power after validation.
func (c DISIConfiguration) RankPower() (int8, error) {
	if c.DenseRankPower == nil {
		return DEFAULT_DENSE_RANK_POWER, nil
	}
	if err := checkDenseRankPower(*c.DenseRankPower); err != nil {
		return 0, err
	}
	return *c.DenseRankPower, nil
}

// ParseDISIConfiguration decodes a yaml document.
func ParseDISIConfiguration(data []byte) (DISIConfiguration, error) {
	var cfg DISIConfiguration
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "invalid doc-id block configuration")
	}
	_, err := cfg.RankPower()
	return cfg, err
}

// LoadDISIConfiguration reads and decodes a yaml file.
func LoadDISIConfiguration(path string) (DISIConfiguration, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return DISIConfiguration{}, errors.Wrapf(err, "cannot read %v", path)
	}
	return ParseDISIConfiguration(data)
}
