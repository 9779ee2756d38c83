package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/eak1mov/go-quadstream/dataset"
	"github.com/eak1mov/go-quadstream/geom"
	"gopkg.in/yaml.v3"
)

// streamConfig describes a scripted viewing session.
type streamConfig struct {
	Base        string     `yaml:"base"`
	QueueLength int        `yaml:"queue_length"`
	Workers     int        `yaml:"workers"`
	Retry       string     `yaml:"retry"`
	LogLevel    string     `yaml:"log_level"`
	Viewports   []viewport `yaml:"viewports"`
	Find        []int64    `yaml:"find"`
}

type viewport struct {
	BBox   geom.Rect `yaml:"bbox"`
	MaxIx  *int64    `yaml:"max_ix"`
	Passes int       `yaml:"passes"`
}

func defaultStreamConfig() streamConfig {
	return streamConfig{
		QueueLength: dataset.DefaultQueueLength,
		Retry:       "never",
		LogLevel:    "info",
	}
}

func loadStreamConfig(path string) (streamConfig, error) {
	conf := defaultStreamConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return conf, err
	}
	if err := yaml.Unmarshal(raw, &conf); err != nil {
		return conf, fmt.Errorf("parse %s: %w", path, err)
	}
	return conf, conf.validate()
}

func (c *streamConfig) validate() error {
	if c.Base == "" {
		return errors.New("config: base is required")
	}
	if c.QueueLength <= 0 {
		return fmt.Errorf("config: queue_length must be positive, got %d", c.QueueLength)
	}
	if _, err := c.retryPolicy(); err != nil {
		return err
	}
	for i := range c.Viewports {
		v := &c.Viewports[i]
		if v.BBox.Area() <= 0 {
			return fmt.Errorf("config: viewport %d has an empty bbox", i)
		}
		if v.Passes <= 0 {
			v.Passes = 1
		}
	}
	return nil
}

func (c *streamConfig) retryPolicy() (dataset.RetryPolicy, error) {
	switch c.Retry {
	case "", "never":
		return dataset.RetryNever, nil
	case "next-pass":
		return dataset.RetryOnNextPass, nil
	}
	return 0, fmt.Errorf("config: unknown retry policy %q", c.Retry)
}
