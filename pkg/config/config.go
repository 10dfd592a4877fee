package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Gemini     GeminiConfig
	Cloudinary CloudinaryConfig
	Crypto     CryptoConfig
	OCR        OCRConfig
	Prompt     PromptConfig
	Logger     LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type GeminiConfig struct {
	APIKey string
	Model  string
	// APIURL overrides the default generateContent endpoint when set.
	APIURL  string
	Timeout time.Duration
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type CryptoConfig struct {
	// Secret for the summary vault. JWT_SECRET is accepted as a legacy
	// alias so older deployments keep decrypting their stored records.
	Secret string
}

type OCRConfig struct {
	FetchTimeout time.Duration
}

type PromptConfig struct {
	// Template selects the summary prompt variant: "english" or "bilingual".
	Template string
}

func Load() (*Config, error) {
	// Try to load .env file from current directory or project root
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}
	// No .env file is fine: plain environment variables are used directly
	// (useful for Docker/K8s)

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	bodyLimitMB, _ := strconv.Atoi(getEnv("SERVER_BODY_LIMIT_MB", "10"))
	geminiTimeout, _ := strconv.Atoi(getEnv("GEMINI_TIMEOUT", "30"))
	ocrFetchTimeout, _ := strconv.Atoi(getEnv("OCR_FETCH_TIMEOUT", "20"))

	encSecret := getEnv("RECEIPT_ENC_KEY", "")
	if encSecret == "" {
		encSecret = getEnv("JWT_SECRET", "")
	}

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "5001"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
			BodyLimit:    bodyLimitMB * 1024 * 1024,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "medassist_receipts"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Gemini: GeminiConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			APIURL:  getEnv("GEMINI_API_URL", ""),
			Timeout: time.Duration(geminiTimeout) * time.Second,
		},
		Cloudinary: CloudinaryConfig{
			CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
			APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
			Folder:    getEnv("CLOUDINARY_FOLDER", "medassist/receipts"),
		},
		Crypto: CryptoConfig{
			Secret: encSecret,
		},
		OCR: OCRConfig{
			FetchTimeout: time.Duration(ocrFetchTimeout) * time.Second,
		},
		Prompt: PromptConfig{
			Template: getEnv("PROMPT_TEMPLATE", "english"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
