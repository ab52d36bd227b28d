package backup

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path"
	"strings"
)

const defaultS3Region = "us-east-1"

// S3Config locates the bucket that receives off-host copies of the
// DuckDB snapshots. BucketURL is s3://bucket or s3://bucket/prefix;
// Endpoint covers S3-compatible stores (MinIO, R2) and may omit the
// scheme, in which case UseSSL picks one.
type S3Config struct {
	BucketURL    string
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	SessionToken string
	UseSSL       bool
}

// S3Uploader copies snapshot files into a bucket by shelling out to
// the aws CLI, one object per snapshot. Credentials travel through the
// child's environment, never through argv.
type S3Uploader struct {
	bucket    string
	keyPrefix string
	cfg       S3Config
}

// NewS3Uploader validates the bucket URL and credentials and confirms
// the aws CLI is present before the first snapshot interval fires.
func NewS3Uploader(cfg S3Config) (*S3Uploader, error) {
	bucket, prefix, err := splitBucketURL(cfg.BucketURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("s3: access key and secret key are required")
	}
	if _, err := exec.LookPath("aws"); err != nil {
		return nil, fmt.Errorf("s3: aws cli not found in PATH")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = defaultS3Region
	}
	return &S3Uploader{bucket: bucket, keyPrefix: prefix, cfg: cfg}, nil
}

// UploadFile copies one local snapshot to the bucket, keyed by its
// base name under the configured prefix. Cancelling ctx kills the
// child process, so a hung transfer cannot outlive manager shutdown.
func (u *S3Uploader) UploadFile(ctx context.Context, localPath string) error {
	cmd := exec.CommandContext(ctx, "aws", u.copyArgs(localPath)...)
	cmd.Env = u.credentialEnv()
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("s3 upload command failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (u *S3Uploader) copyArgs(localPath string) []string {
	key := path.Base(localPath)
	if u.keyPrefix != "" {
		key = path.Join(u.keyPrefix, key)
	}
	args := []string{
		"s3", "cp", localPath,
		fmt.Sprintf("s3://%s/%s", u.bucket, key),
		"--region", u.cfg.Region,
		"--only-show-errors",
	}
	if endpoint := endpointURL(u.cfg.Endpoint, u.cfg.UseSSL); endpoint != "" {
		args = append(args, "--endpoint-url", endpoint)
	}
	return args
}

func (u *S3Uploader) credentialEnv() []string {
	env := append(os.Environ(),
		"AWS_ACCESS_KEY_ID="+u.cfg.AccessKey,
		"AWS_SECRET_ACCESS_KEY="+u.cfg.SecretKey,
		"AWS_DEFAULT_REGION="+u.cfg.Region,
	)
	if strings.TrimSpace(u.cfg.SessionToken) != "" {
		env = append(env, "AWS_SESSION_TOKEN="+u.cfg.SessionToken)
	}
	return env
}

// endpointURL completes a bare endpoint host with a scheme.
func endpointURL(endpoint string, useSSL bool) string {
	endpoint = strings.TrimSpace(endpoint)
	switch {
	case endpoint == "":
		return ""
	case strings.HasPrefix(endpoint, "http://"), strings.HasPrefix(endpoint, "https://"):
		return endpoint
	case useSSL:
		return "https://" + endpoint
	default:
		return "http://" + endpoint
	}
}

// splitBucketURL breaks s3://bucket/prefix into its bucket and key
// prefix parts.
func splitBucketURL(raw string) (bucket string, prefix string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("s3: parse bucket-url: %w", err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("s3: bucket-url must use s3:// scheme")
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", "", fmt.Errorf("s3: bucket-url missing bucket name")
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}
