// Package config loads run parameters for the riskreport command from a
// config file, BONDRISK_* environment variables and a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/meenmo/bondrisk/bond"
	"github.com/meenmo/bondrisk/calendar"
	"github.com/meenmo/bondrisk/logging"
	"github.com/meenmo/bondrisk/portfolio"
	"github.com/meenmo/bondrisk/utils"
)

// EnvPrefix prefixes every environment override, e.g. BONDRISK_REPORT_DATE
// or BONDRISK_SOLVER_TOLERANCE.
const EnvPrefix = "BONDRISK"

// Config is the file/environment view of portfolio.Config.
type Config struct {
	ReportDate        string    `mapstructure:"report_date"`
	DayCount          string    `mapstructure:"day_count"`
	Frequency         int       `mapstructure:"frequency"`
	Face              float64   `mapstructure:"face"`
	Buckets           []int     `mapstructure:"buckets"`
	ShiftsBp          []float64 `mapstructure:"shifts_bp"`
	// Calendar is a label only. Holidays (US federal holidays for the
	// default USD calendar) must be listed explicitly; without them the
	// calendar skips weekends only.
	Calendar          string    `mapstructure:"calendar"`
	Holidays          []string  `mapstructure:"holidays"`
	PaymentAdjustment string    `mapstructure:"payment_adjustment"`

	// Workers is the analysis parallelism; 0 means one per CPU.
	Workers int `mapstructure:"workers"`

	Solver SolverConfig      `mapstructure:"solver"`
	Log    logging.LogConfig `mapstructure:"log"`
}

// SolverConfig holds the yield solver parameters.
type SolverConfig struct {
	Tolerance     float64 `mapstructure:"tolerance"`
	MaxIterations int     `mapstructure:"max_iterations"`
	LowerBound    float64 `mapstructure:"lower_bound"`
	UpperBound    float64 `mapstructure:"upper_bound"`
}

// Default returns the stock report parameters.
func Default() Config {
	return Config{
		ReportDate:        "2021-10-12",
		DayCount:          string(utils.ActActISDA),
		Frequency:         2,
		Face:              100,
		Buckets:           []int{5, 10, 20, 30},
		ShiftsBp:          []float64{5, 10, 15, 20, 25},
		Calendar:          string(calendar.USD),
		PaymentAdjustment: string(calendar.Unadjusted),
		Workers:           runtime.NumCPU(),
		Solver: SolverConfig{
			Tolerance:     bond.DefaultSolverConfig.Tolerance,
			MaxIterations: bond.DefaultSolverConfig.MaxIterations,
			LowerBound:    bond.DefaultSolverConfig.LowerBound,
			UpperBound:    bond.DefaultSolverConfig.UpperBound,
		},
		Log: logging.DefaultLogConfig(),
	}
}

// Load layers Default(), the optional config file at path (YAML, TOML or JSON
// by extension) and BONDRISK_* environment variables, in increasing priority.
// A .env file in the working directory is read first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("report_date", d.ReportDate)
	v.SetDefault("day_count", d.DayCount)
	v.SetDefault("frequency", d.Frequency)
	v.SetDefault("face", d.Face)
	v.SetDefault("buckets", d.Buckets)
	v.SetDefault("shifts_bp", d.ShiftsBp)
	v.SetDefault("calendar", d.Calendar)
	v.SetDefault("holidays", d.Holidays)
	v.SetDefault("payment_adjustment", d.PaymentAdjustment)
	v.SetDefault("workers", d.Workers)

	v.SetDefault("solver.tolerance", d.Solver.Tolerance)
	v.SetDefault("solver.max_iterations", d.Solver.MaxIterations)
	v.SetDefault("solver.lower_bound", d.Solver.LowerBound)
	v.SetDefault("solver.upper_bound", d.Solver.UpperBound)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.console", d.Log.Console)
	v.SetDefault("log.color", d.Log.Color)
	v.SetDefault("log.file", d.Log.FilePath)
	v.SetDefault("log.max_size", d.Log.MaxSize)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age", d.Log.MaxAge)
}

// Validate checks that the configuration converts to a valid portfolio.Config.
func (c *Config) Validate() error {
	_, err := c.Portfolio()
	return err
}

// Portfolio converts c to the library configuration.
func (c *Config) Portfolio() (portfolio.Config, error) {
	reportDate, err := utils.ParseDate(c.ReportDate)
	if err != nil {
		return portfolio.Config{}, fmt.Errorf("%w: report_date: %v", portfolio.ErrInvalidConfig, err)
	}
	dc, err := utils.ParseDayCount(c.DayCount)
	if err != nil {
		return portfolio.Config{}, fmt.Errorf("%w: day_count: %v", portfolio.ErrInvalidConfig, err)
	}
	conv, err := calendar.ParseConvention(c.PaymentAdjustment)
	if err != nil {
		return portfolio.Config{}, fmt.Errorf("%w: payment_adjustment: %v", portfolio.ErrInvalidConfig, err)
	}

	holidays := make([]time.Time, 0, len(c.Holidays))
	for _, h := range c.Holidays {
		d, err := utils.ParseDate(h)
		if err != nil {
			return portfolio.Config{}, fmt.Errorf("%w: holidays: %v", portfolio.ErrInvalidConfig, err)
		}
		holidays = append(holidays, d)
	}

	workers := c.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	pc := portfolio.Config{
		ReportDate:        reportDate,
		DayCount:          dc,
		Frequency:         c.Frequency,
		Face:              c.Face,
		Buckets:           c.Buckets,
		ShiftsBp:          c.ShiftsBp,
		Calendar:          calendar.New(calendar.CalendarID(strings.ToUpper(c.Calendar)), holidays...),
		PaymentAdjustment: conv,
		Workers:           workers,
		Solver: bond.SolverConfig{
			Tolerance:           c.Solver.Tolerance,
			MaxIterations:       c.Solver.MaxIterations,
			LowerBound:          c.Solver.LowerBound,
			UpperBound:          c.Solver.UpperBound,
			DerivativeThreshold: bond.DefaultSolverConfig.DerivativeThreshold,
		},
	}
	if err := pc.Validate(); err != nil {
		return portfolio.Config{}, err
	}
	return pc, nil
}
