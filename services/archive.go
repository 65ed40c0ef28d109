package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anjiri1684/edirpay/models"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const receiptFolder = "edir_receipts"

// ReceiptArchiver keeps a copy of a receipt outside the chat platform.
type ReceiptArchiver interface {
	Archive(ctx context.Context, sub models.Submission, evidenceRef string) (string, error)
}

// FileURLResolver turns a platform file handle into a downloadable URL.
type FileURLResolver func(ctx context.Context, evidenceRef string) (string, error)

type CloudinaryArchiver struct {
	cld     *cloudinary.Cloudinary
	resolve FileURLResolver
}

func NewCloudinaryArchiver(cloudinaryURL string, resolve FileURLResolver) (*CloudinaryArchiver, error) {
	if cloudinaryURL == "" {
		return nil, errors.New("cloudinary url is empty")
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &CloudinaryArchiver{cld: cld, resolve: resolve}, nil
}

func (a *CloudinaryArchiver) Archive(ctx context.Context, sub models.Submission, evidenceRef string) (string, error) {
	src, err := a.resolve(ctx, evidenceRef)
	if err != nil {
		return "", fmt.Errorf("resolve receipt %s: %w", sub.Code(), err)
	}
	resp, err := a.cld.Upload.Upload(ctx, src, uploader.UploadParams{
		Folder:   receiptFolder,
		PublicID: strings.TrimPrefix(sub.Code(), "#"),
		Tags:     []string{sub.Kind, fmt.Sprintf("owner_%d", sub.OwnerID)},
	})
	if err != nil {
		return "", fmt.Errorf("upload receipt %s: %w", sub.Code(), err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("upload receipt %s: %s", sub.Code(), resp.Error.Message)
	}
	return resp.SecureURL, nil
}
