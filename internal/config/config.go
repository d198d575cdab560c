package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt          = 0.01
	DefaultSteps       = 1000
	DefaultWorkers     = 4
	DefaultSampleEvery = 10
	DefaultDataDir     = ".nbody"
)

type Config struct {
	Steps         int         `yaml:"steps"`
	Dt            float64     `yaml:"dt"`
	Preview       bool        `yaml:"preview"`
	RequireFinite bool        `yaml:"require_finite"`
	Workers       int         `yaml:"workers"`
	SampleEvery   int         `yaml:"sample_every"`
	DataDir       string      `yaml:"data_dir"`
	Jobs          []JobConfig `yaml:"jobs,omitempty"`
}

// JobConfig is one entry of a batch run. Unset fields inherit from the
// enclosing Config; an explicit `steps: 0` is a zero-step run.
type JobConfig struct {
	Name  string   `yaml:"name"`
	Steps *int     `yaml:"steps,omitempty"`
	Dt    *float64 `yaml:"dt,omitempty"`
}

// Job is a JobConfig with every field resolved.
type Job struct {
	Name  string
	Steps int
	Dt    float64
}

func DefaultConfig() *Config {
	return &Config{
		Steps:         DefaultSteps,
		Dt:            DefaultDt,
		Preview:       true,
		RequireFinite: true,
		Workers:       DefaultWorkers,
		SampleEvery:   DefaultSampleEvery,
		DataDir:       DefaultDataDir,
	}
}

// Load reads path over the default configuration.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path over a copy of base, so keys missing from the file
// keep base's values.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *base
	cfg.Jobs = append([]JobConfig(nil), base.Jobs...)
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Steps < 0 {
		return fmt.Errorf("steps must be non-negative, got %d", c.Steps)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.SampleEvery < 0 {
		return fmt.Errorf("sample_every must be non-negative, got %d", c.SampleEvery)
	}
	for i, j := range c.Jobs {
		if j.Steps != nil && *j.Steps < 0 {
			return fmt.Errorf("job %d (%s): steps must be non-negative, got %d", i, j.Name, *j.Steps)
		}
		if j.Dt != nil && *j.Dt <= 0 {
			return fmt.Errorf("job %d (%s): dt must be positive, got %f", i, j.Name, *j.Dt)
		}
	}
	return nil
}

// ResolvedJobs returns the batch jobs with unset fields filled from c.
func (c *Config) ResolvedJobs() []Job {
	jobs := make([]Job, len(c.Jobs))
	for i, j := range c.Jobs {
		job := Job{Name: j.Name, Steps: c.Steps, Dt: c.Dt}
		if job.Name == "" {
			job.Name = fmt.Sprintf("job%d", i+1)
		}
		if j.Steps != nil {
			job.Steps = *j.Steps
		}
		if j.Dt != nil {
			job.Dt = *j.Dt
		}
		jobs[i] = job
	}
	return jobs
}
