package util

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/spf13/viper"
)

// Config holds every setting of an evaluation or ingestion run.
type Config struct {
	Dataset           string  `mapstructure:"dataset"`
	DistanceFunction  string  `mapstructure:"distance_function" validate:"omitempty,oneof=euclidean greatcircle"`
	MapPath           string  `mapstructure:"map_path"`
	TrajectoryFolder  string  `mapstructure:"trajectory_folder"`
	PredictedFolder   string  `mapstructure:"predicted_folder"`
	GroundTruthFolder string  `mapstructure:"ground_truth_folder"`
	OutputFolder      string  `mapstructure:"output_folder"`
	DownSampleRate    int     `mapstructure:"downsample_rate" validate:"min=1"`
	DPTolerance       float64 `mapstructure:"dp_tolerance" validate:"min=0"`
	Weighting         string  `mapstructure:"weighting" validate:"oneof=unit length"`
	Workers           int     `mapstructure:"workers" validate:"min=1"`
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("downsample_rate", 1)
	v.SetDefault("dp_tolerance", 0.0)
	v.SetDefault("weighting", "unit")
	v.SetDefault("workers", runtime.NumCPU())
}

// ReadConfig loads config.yaml from ./data/ or the working directory (optional), then MAPEVAL_* env overrides
// and whatever flags were bound to v by the caller.
func ReadConfig(v *viper.Viper) (*Config, error) {
	setConfigDefaults(v)
	v.SetConfigName("config")
	v.AddConfigPath("./data/")
	v.AddConfigPath(".")
	v.SetEnvPrefix("MAPEVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("fatal error config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("fatal error config file: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateConfig checks cfg against its validate tags. messages are translated to English when the translator
// can be set up, otherwise the validator's own messages are used.
func ValidateConfig(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		trans, terr := englishTranslator(validate)
		if terr != nil {
			return WrapErrorf(terr, ErrBadParamInput, "validation error: %v", translateError(err, nil))
		}
		return WrapErrorf(nil, ErrBadParamInput, "validation error: %v", translateError(err, trans))
	}
	return nil
}

func englishTranslator(validate *validator.Validate) (ut.Translator, error) {
	english := en.New()
	uni := ut.New(english, english)
	trans, found := uni.GetTranslator("en")
	if !found {
		return nil, errors.New("english translator not found")
	}
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}
	return trans, nil
}

// translateError turns validation errors into one message per field. a nil trans keeps the raw messages.
func translateError(err error, trans ut.Translator) []string {
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(validatorErrs))
	for _, e := range validatorErrs {
		if trans == nil {
			msgs = append(msgs, e.Error())
			continue
		}
		msgs = append(msgs, e.Translate(trans))
	}
	return msgs
}
