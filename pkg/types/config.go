package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	DatabaseSchema  string `envconfig:"DATABASE_SCHEMA" default:"comproposito"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`

	// Volunteer portal links embedded in e-mails
	PortalBaseURL string `envconfig:"PORTAL_BASE_URL" default:"https://3dcomproposito.vercel.app"`
	MakerGuideURL string `envconfig:"MAKER_GUIDE_URL" default:"https://bsbqmqfznkozqagdhvoj.supabase.co/storage/v1/object/public/resources/TMT_MAKER_GUIDE_rev_A_compressed.pdf"`
	ModelFilesURL string `envconfig:"MODEL_FILES_URL" default:"https://makerworld.com/en/models/2066081-3d-toddler-mobility-trainer"`

	// Transactional e-mail. Without an API key messages are only logged.
	MailAPIKey      string `envconfig:"SENDGRID_API_KEY"`
	MailFromName    string `envconfig:"MAIL_FROM_NAME" default:"3D com Propósito"`
	MailFromAddress string `envconfig:"MAIL_FROM_ADDRESS" default:"noreply@3dcomproposito.pt"`
	AdminAlertEmail string `envconfig:"ADMIN_ALERT_EMAIL" default:"geral@3dcomproposito.pt"`
	ResendDelayMS   uint   `envconfig:"RESEND_DELAY_MS" default:"1000"`

	// Volunteer credential recovery
	ResetCodeTTLMin      uint `envconfig:"RESET_CODE_TTL_MIN" default:"15"`
	ResetCodeMaxAttempts int  `envconfig:"RESET_CODE_MAX_ATTEMPTS" default:"3"`
	MinPasswordLength    int  `envconfig:"MIN_PASSWORD_LENGTH" default:"4"`

	// Cognito Auth (organizers)
	CognitoUserPoolID string `envconfig:"COGNITO_USER_POOL_ID"`
	CognitoClientID   string `envconfig:"COGNITO_CLIENT_ID"`
	CognitoIssuerURL  string `envconfig:"COGNITO_ISSUER_URL"`

	// Auth Configuration
	CookieName       string `envconfig:"SESSION_COOKIE_NAME" default:"cp_access_token"`
	SessionMaxAgeSec int    `envconfig:"SESSION_MAX_AGE_SEC" default:"604800"` // 7 days

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes

	// Part file storage: "s3" or "supabase"
	StorageBackend    string `envconfig:"STORAGE_BACKEND" default:"s3"`
	StorageBucketName string `envconfig:"STORAGE_BUCKET_NAME" default:"part-files"`
	S3PublicBaseURL   string `envconfig:"S3_PUBLIC_BASE_URL"`
	SupabaseProjectID string `envconfig:"SUPABASE_PROJECT_ID"`
	SupabaseAPIKey    string `envconfig:"SUPABASE_API_KEY"`

	// Card donations
	StripeSecretKey  string `envconfig:"STRIPE_SECRET_KEY"`
	DonationCurrency string `envconfig:"DONATION_CURRENCY" default:"eur"`
}
