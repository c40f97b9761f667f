// Package config는 viper를 사용해 설정 파일과 환경 변수를 읽어 구조체로 변환합니다.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// 설정 디렉토리 경로
const configDir = "configs"

// Options는 설정 로드 동작을 조정합니다.
type Options struct {
	// ServiceName은 설정 파일 이름이자 환경 변수 접두사입니다 (예: billing → BILLING_SERVER_HTTP_PORT).
	ServiceName string
	// EnvBindings는 설정 키를 접두사 없는 환경 변수에 직접 연결합니다 (예: "stripe.api_key" → "STRIPE_API_KEY").
	EnvBindings map[string]string
	// Defaults는 파일과 환경 변수에 값이 없을 때 사용할 기본값입니다.
	Defaults map[string]interface{}
}

// Load는 설정을 읽어 out에 채웁니다. out은 mapstructure 태그를 가진 구조체 포인터여야 합니다.
//
// 파일 탐색 순서: CONFIG_PATH(파일 또는 디렉토리) → configs/{APP_ENV} → configs
func Load(opts Options, out interface{}) error {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range opts.Defaults {
		v.SetDefault(key, value)
	}

	// 환경 변수 바인딩 설정
	v.SetEnvPrefix(strings.ToUpper(opts.ServiceName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range opts.EnvBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("환경 변수 바인딩 실패 (%s): %w", key, err)
		}
	}

	if err := readConfigFile(v, opts.ServiceName); err != nil {
		return err
	}

	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("설정 변환 실패: %w", err)
	}
	return nil
}

func readConfigFile(v *viper.Viper, serviceName string) error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath != "" {
		if info, err := os.Stat(configPath); err == nil && !info.IsDir() {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("설정 파일 로드 실패: %w", err)
			}
			return nil
		}
		v.AddConfigPath(configPath)
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	v.SetConfigName(serviceName)
	v.AddConfigPath(filepath.Join(configDir, env))
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		// 설정 파일이 없으면 기본값과 환경 변수만 사용
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("설정 파일 로드 실패: %w", err)
	}
	return nil
}
