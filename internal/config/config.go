// Package config provides configuration types and defaults for marquee.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all configuration for marquee.
type Config struct {
	Countdown   CountdownConfig   `yaml:"countdown" mapstructure:"countdown"`
	Hero        HeroConfig        `yaml:"hero" mapstructure:"hero"`
	Catalog     CatalogConfig     `yaml:"catalog" mapstructure:"catalog"`
	Gallery     GalleryConfig     `yaml:"gallery" mapstructure:"gallery"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Paths       PathsConfig       `yaml:"paths" mapstructure:"paths"`
	LogRotation LogRotationConfig `yaml:"log_rotation" mapstructure:"log_rotation"`
}

// CountdownConfig configures the "Next Up" countdown card.
// Empty fields are filled from the next upcoming catalog event.
type CountdownConfig struct {
	Title  string        `yaml:"title" mapstructure:"title"`
	Target string        `yaml:"target" mapstructure:"target"` // ISO-8601 with offset
	Href   string        `yaml:"href" mapstructure:"href"`
	Tick   time.Duration `yaml:"tick" mapstructure:"tick"`
}

// HeroConfig configures the rotating hero display.
type HeroConfig struct {
	Title         string        `yaml:"title" mapstructure:"title"`
	Subtitle      string        `yaml:"subtitle" mapstructure:"subtitle"`
	Interval      time.Duration `yaml:"interval" mapstructure:"interval"`
	ReducedMotion bool          `yaml:"reduced_motion" mapstructure:"reduced_motion"`
	ResetOnManual bool          `yaml:"reset_on_manual" mapstructure:"reset_on_manual"` // Re-arm the cadence after manual navigation
	MaxSlides     int           `yaml:"max_slides" mapstructure:"max_slides"`           // Cap when slides come from the catalog
	Slides        []SlideConfig `yaml:"slides" mapstructure:"slides"`                   // Empty = catalog photos
}

// SlideConfig is one configured hero slide.
type SlideConfig struct {
	Image       string `yaml:"image" mapstructure:"image"`
	Alt         string `yaml:"alt" mapstructure:"alt"`
	ShowCaption bool   `yaml:"show_caption" mapstructure:"show_caption"`
}

// CatalogConfig points at an external event catalog.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // Empty = embedded catalog
}

// GalleryConfig caps how many photos each surface shows.
type GalleryConfig struct {
	WallLimit      int `yaml:"wall_limit" mapstructure:"wall_limit"`
	HighlightLimit int `yaml:"highlight_limit" mapstructure:"highlight_limit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	PushInterval    time.Duration `yaml:"push_interval" mapstructure:"push_interval"` // Websocket snapshot cadence
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// PathsConfig holds file paths for the event log, socket and PID file.
type PathsConfig struct {
	Log    string `yaml:"log" mapstructure:"log"`
	Socket string `yaml:"socket" mapstructure:"socket"`
	PID    string `yaml:"pid" mapstructure:"pid"`
}

// LogRotationConfig holds settings for log file rotation.
// Used by the event log sink and the TUI debug log.
type LogRotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// DefaultHeroTitle and DefaultHeroSubtitle are the brand copy on the hero.
const (
	DefaultHeroTitle    = "LEKKI Entertainment"
	DefaultHeroSubtitle = "Premium Afrobeats, culture, and nightlife · Denver · Aurora · Colorado Springs"
)

// Default returns a Config with the site's stock settings.
func Default() *Config {
	return &Config{
		Countdown: CountdownConfig{
			Tick: time.Second,
		},
		Hero: HeroConfig{
			Title:     DefaultHeroTitle,
			Subtitle:  DefaultHeroSubtitle,
			Interval:  5 * time.Second,
			MaxSlides: 12,
			Slides:    []SlideConfig{},
		},
		Gallery: GalleryConfig{
			WallLimit:      20,
			HighlightLimit: 12,
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			PushInterval:    time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Paths: PathsConfig{
			Log:    ".marquee/events.log",
			Socket: ".marquee/marquee.sock",
			PID:    ".marquee/marquee.pid",
		},
		LogRotation: LogRotationConfig{
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}

// Validate rejects settings that would make the display misbehave.
// The countdown target is not checked here; a bad target degrades to the
// "Schedule unavailable" card instead of failing startup.
func (c *Config) Validate() error {
	var errs []error
	if c.Countdown.Tick <= 0 {
		errs = append(errs, fmt.Errorf("countdown.tick must be positive, got %s", c.Countdown.Tick))
	}
	if c.Hero.Interval < 0 {
		errs = append(errs, fmt.Errorf("hero.interval must not be negative, got %s", c.Hero.Interval))
	}
	if c.Server.PushInterval <= 0 {
		errs = append(errs, fmt.Errorf("server.push_interval must be positive, got %s", c.Server.PushInterval))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	for i, s := range c.Hero.Slides {
		if s.Image == "" {
			errs = append(errs, fmt.Errorf("hero.slides[%d]: image is required", i))
		}
	}
	return errors.Join(errs...)
}
