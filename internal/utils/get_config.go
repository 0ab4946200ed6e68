package utils

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	// Database configuration
	DBUser     string `yaml:"DB_USER"`
	DBName     string `yaml:"DB_NAME"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBPort     string `yaml:"DB_PORT"`
	DBHost     string `yaml:"DB_HOST"`

	// JWT key
	JWTSecret string `yaml:"JWT_SECRET"`

	// Public URLs
	AppURL     string `yaml:"APP_URL"`
	AppPort    string `yaml:"APP_PORT"`
	DomainName string `yaml:"DOMAIN_NAME"`

	// Mailing configuration
	SMTPHost         string `yaml:"SMTP_HOST"`
	SMTPPort         string `yaml:"SMTP_PORT"`
	SMTPSenderName   string `yaml:"SMTP_SENDER_NAME"`
	SMTPAuthEmail    string `yaml:"SMTP_AUTH_EMAIL"`
	SMTPAuthPassword string `yaml:"SMTP_AUTH_PASSWORD"`

	// AWS S3 configuration
	AWSS3Bucket  string `yaml:"AWS_S3_BUCKET"`
	AWSS3Region  string `yaml:"AWS_S3_REGION"`
	AWSAccessKey string `yaml:"AWS_ACCESS_KEY"`
	AWSSecretKey string `yaml:"AWS_SECRET_KEY"`

	// Listing and validation knobs
	PageSize            int  `yaml:"PAGE_SIZE"`
	MaxPageSize         int  `yaml:"MAX_PAGE_SIZE"`
	MinCookingTime      int  `yaml:"MIN_COOKING_TIME"`
	StrictViewerFilters bool `yaml:"STRICT_VIEWER_FILTERS"`
}

var config Config

func LoadConfig() {
	file, err := os.ReadFile("config.yaml")
	if err != nil {
		log.Printf("Error reading YAML file: %s\n", err)
		return
	}

	err = yaml.Unmarshal(file, &config)
	if err != nil {
		log.Printf("Error parsing YAML file: %s\n", err)
		return
	}

	// Keys that should also be reachable via os.Getenv
	os.Setenv("JWT_SECRET", config.JWTSecret)
	os.Setenv("AWS_S3_BUCKET", config.AWSS3Bucket)
	os.Setenv("AWS_S3_REGION", config.AWSS3Region)
	os.Setenv("AWS_ACCESS_KEY", config.AWSAccessKey)
	os.Setenv("AWS_SECRET_KEY", config.AWSSecretKey)
	os.Setenv("DOMAIN_NAME", config.DomainName)
}

func GetConfig(key string) string {
	switch key {
	case "DB_USER":
		return config.DBUser
	case "DB_NAME":
		return config.DBName
	case "DB_PASSWORD":
		return config.DBPassword
	case "DB_PORT":
		return config.DBPort
	case "DB_HOST":
		return config.DBHost
	case "JWT_SECRET":
		return config.JWTSecret
	case "APP_URL":
		return config.AppURL
	case "APP_PORT":
		return config.AppPort
	case "DOMAIN_NAME":
		return config.DomainName
	case "SMTP_HOST":
		return config.SMTPHost
	case "SMTP_PORT":
		return config.SMTPPort
	case "SMTP_SENDER_NAME":
		return config.SMTPSenderName
	case "SMTP_AUTH_EMAIL":
		return config.SMTPAuthEmail
	case "SMTP_AUTH_PASSWORD":
		return config.SMTPAuthPassword
	case "AWS_S3_BUCKET":
		return config.AWSS3Bucket
	case "AWS_S3_REGION":
		return config.AWSS3Region
	case "AWS_ACCESS_KEY":
		return config.AWSAccessKey
	case "AWS_SECRET_KEY":
		return config.AWSSecretKey
	case "PAGE_SIZE":
		return strconv.Itoa(config.PageSize)
	case "MAX_PAGE_SIZE":
		return strconv.Itoa(config.MaxPageSize)
	case "MIN_COOKING_TIME":
		return strconv.Itoa(config.MinCookingTime)
	default:
		return ""
	}
}

// PageSize is the default listing page size.
func PageSize() int {
	if config.PageSize > 0 {
		return config.PageSize
	}
	return 6
}

// MaxPageSize caps the client-supplied limit parameter.
func MaxPageSize() int {
	if config.MaxPageSize > 0 {
		return config.MaxPageSize
	}
	return 100
}

// MinCookingTime is the lowest accepted cooking time in minutes.
func MinCookingTime() int {
	if config.MinCookingTime > 0 {
		return config.MinCookingTime
	}
	return 1
}

// StrictViewerFilters controls what happens when an anonymous request asks
// for is_favorited or is_in_shopping_cart: reject when true, ignore when
// false.
func StrictViewerFilters() bool {
	return config.StrictViewerFilters
}
