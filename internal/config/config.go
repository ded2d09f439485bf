package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP struct {
		Port           string   `yaml:"port"`
		Env            string   `yaml:"env" validate:"oneof=development production test"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"http"`

	Cookies struct {
		// HashKey signs every session cookie. 32 or 64 bytes recommended.
		HashKey string `yaml:"hashKey" validate:"required,min=32"`
	} `yaml:"cookies"`

	Commerce struct {
		BaseURL            string `yaml:"baseUrl" validate:"required,url"`
		OrganizationID     string `yaml:"organizationId" validate:"required"`
		ClientID           string `yaml:"clientId" validate:"required"`
		ClientSecret       string `yaml:"clientSecret" validate:"required"`
		TenantID           string `yaml:"tenantId" validate:"required"`
		AdminClientID      string `yaml:"adminClientId" validate:"required"`
		AdminClientSecret  string `yaml:"adminClientSecret" validate:"required"`
		// Orders credentials fall back to the admin client when unset.
		OrdersClientID     string `yaml:"ordersClientId"`
		OrdersClientSecret string `yaml:"ordersClientSecret"`
		// AccountManagerURL issues machine tokens. Defaults to the public account manager.
		AccountManagerURL  string `yaml:"accountManagerUrl" validate:"omitempty,url"`
		RedirectURL        string `yaml:"redirectUrl" validate:"required,url"`
		// SiteID and Locale apply when a request does not name its own.
		SiteID             string `yaml:"siteId" validate:"required"`
		Locale             string `yaml:"locale"`
	} `yaml:"commerce"`

	OCAPI struct {
		BaseURL                     string   `yaml:"baseUrl" validate:"required,url"`
		ClientID                    string   `yaml:"clientId" validate:"required"`
		ClientSecret                string   `yaml:"clientSecret" validate:"required"`
		BMUser                      string   `yaml:"bmUser" validate:"required"`
		BMPassword                  string   `yaml:"bmPassword" validate:"required"`
		PreferenceGroupID           string   `yaml:"preferenceGroupId"`
		PreferenceGroupInstanceType string   `yaml:"preferenceGroupInstanceType"`
		ContentAssetIDs             []string `yaml:"contentAssetIds"`
	} `yaml:"ocapi"`

	Stripe struct {
		SecretKey       string `yaml:"secretKey" validate:"required"`
		WebhookSecret   string `yaml:"webhookSecret" validate:"required"`
		PaymentMethodID string `yaml:"paymentMethodId"`
	} `yaml:"stripe"`

	Log struct {
		Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error disabled"`
		Format string `yaml:"format" validate:"omitempty,oneof=json console"`
	} `yaml:"log"`
}

// IsDevelopment reports whether cookies may be issued without Secure.
func (c Config) IsDevelopment() bool {
	return c.HTTP.Env == "development"
}

func Load() (Config, error) {
	cfg := Config{}
	cfg.HTTP.Port = "8080"
	cfg.HTTP.Env = "production"
	cfg.Commerce.AccountManagerURL = "https://account.demandware.com"
	cfg.Commerce.SiteID = "RefArch"
	cfg.Commerce.Locale = "en-US"
	cfg.OCAPI.PreferenceGroupInstanceType = "production"
	cfg.Stripe.PaymentMethodID = "STRIPE_CREDIT_CARD"
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config yaml: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Environment overrides (expected in deploy).
func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	set(&cfg.HTTP.Port, "PORT")
	set(&cfg.HTTP.Env, "APP_ENV")
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	set(&cfg.Cookies.HashKey, "COOKIES_SIGNATURE_KEY")

	set(&cfg.Commerce.BaseURL, "COMMERCE_API_URL")
	set(&cfg.Commerce.OrganizationID, "COMMERCE_ORGANIZATION_ID")
	set(&cfg.Commerce.ClientID, "COMMERCE_CLIENT_ID")
	set(&cfg.Commerce.ClientSecret, "COMMERCE_CLIENT_SECRET")
	set(&cfg.Commerce.TenantID, "COMMERCE_TENANT_ID")
	set(&cfg.Commerce.AdminClientID, "COMMERCE_ADMIN_CLIENT_ID")
	set(&cfg.Commerce.AdminClientSecret, "COMMERCE_ADMIN_CLIENT_SECRET")
	set(&cfg.Commerce.OrdersClientID, "COMMERCE_ORDERS_CLIENT_ID")
	set(&cfg.Commerce.OrdersClientSecret, "COMMERCE_ORDERS_CLIENT_SECRET")
	set(&cfg.Commerce.AccountManagerURL, "COMMERCE_ACCOUNT_MANAGER_URL")
	set(&cfg.Commerce.RedirectURL, "COMMERCE_REDIRECT_URL")
	set(&cfg.Commerce.SiteID, "COMMERCE_SITE_ID")
	set(&cfg.Commerce.Locale, "COMMERCE_LOCALE")

	set(&cfg.OCAPI.BaseURL, "OCAPI_URL")
	set(&cfg.OCAPI.ClientID, "OCAPI_CLIENT_ID")
	set(&cfg.OCAPI.ClientSecret, "OCAPI_CLIENT_SECRET")
	set(&cfg.OCAPI.BMUser, "OCAPI_BM_USER")
	set(&cfg.OCAPI.BMPassword, "OCAPI_BM_PASSWORD")
	set(&cfg.OCAPI.PreferenceGroupID, "OCAPI_PREFERENCE_GROUP_ID")
	set(&cfg.OCAPI.PreferenceGroupInstanceType, "OCAPI_PREFERENCE_GROUP_INSTANCE_TYPE")
	if v := os.Getenv("OCAPI_CONTENT_ASSET_IDS"); v != "" {
		cfg.OCAPI.ContentAssetIDs = splitList(v)
	}

	set(&cfg.Stripe.SecretKey, "STRIPE_SECRET")
	set(&cfg.Stripe.WebhookSecret, "STRIPE_WEBHOOK_SECRET")
	set(&cfg.Stripe.PaymentMethodID, "STRIPE_PAYMENT_METHOD_ID")

	set(&cfg.Log.Level, "LOG_LEVEL")
	set(&cfg.Log.Format, "LOG_FORMAT")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var validate = validator.New()

// Validate reports the first missing or malformed setting with the env var that sets it.
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate config: %w", err)
	}
	fe := verrs[0]
	if env, ok := envNames[fe.StructNamespace()]; ok {
		return fmt.Errorf("invalid config %s (%s failed on %q, set %s)", fe.StructNamespace(), fe.Tag(), fe.Param(), env)
	}
	return fmt.Errorf("invalid config %s (%s failed)", fe.StructNamespace(), fe.Tag())
}

var envNames = map[string]string{
	"Config.HTTP.Env":                   "APP_ENV",
	"Config.Cookies.HashKey":            "COOKIES_SIGNATURE_KEY",
	"Config.Commerce.BaseURL":           "COMMERCE_API_URL",
	"Config.Commerce.OrganizationID":    "COMMERCE_ORGANIZATION_ID",
	"Config.Commerce.ClientID":          "COMMERCE_CLIENT_ID",
	"Config.Commerce.ClientSecret":      "COMMERCE_CLIENT_SECRET",
	"Config.Commerce.TenantID":          "COMMERCE_TENANT_ID",
	"Config.Commerce.AdminClientID":     "COMMERCE_ADMIN_CLIENT_ID",
	"Config.Commerce.AdminClientSecret": "COMMERCE_ADMIN_CLIENT_SECRET",
	"Config.Commerce.AccountManagerURL": "COMMERCE_ACCOUNT_MANAGER_URL",
	"Config.Commerce.RedirectURL":       "COMMERCE_REDIRECT_URL",
	"Config.Commerce.SiteID":            "COMMERCE_SITE_ID",
	"Config.OCAPI.BaseURL":              "OCAPI_URL",
	"Config.OCAPI.ClientID":             "OCAPI_CLIENT_ID",
	"Config.OCAPI.ClientSecret":         "OCAPI_CLIENT_SECRET",
	"Config.OCAPI.BMUser":               "OCAPI_BM_USER",
	"Config.OCAPI.BMPassword":           "OCAPI_BM_PASSWORD",
	"Config.Stripe.SecretKey":           "STRIPE_SECRET",
	"Config.Stripe.WebhookSecret":       "STRIPE_WEBHOOK_SECRET",
	"Config.Log.Level":                  "LOG_LEVEL",
	"Config.Log.Format":                 "LOG_FORMAT",
}
