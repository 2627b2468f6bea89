package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
)

// TextDetector is the subset of the Rekognition client used here.
type TextDetector interface {
	DetectText(ctx context.Context, params *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

// LPRService recognizes plate text with Amazon Rekognition DetectText. It
// satisfies tracker.Recognizer.
type LPRService struct {
	client TextDetector
	logger *zap.SugaredLogger
}

func NewLPRService(client TextDetector, logger *zap.SugaredLogger) *LPRService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &LPRService{client: client, logger: logger.Named("lpr")}
}

// Recognize returns LINE detections in the order Rekognition reports them, upper
// cased, with confidence scaled to 0..1.
func (s *LPRService) Recognize(ctx context.Context, img image.Image) ([]domain.TextCandidate, error) {
	if s.client == nil {
		return nil, fmt.Errorf("LPRService.Recognize: rekognition client is not initialised")
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("LPRService.Recognize: encoding crop: %w", err)
	}

	result, err := s.client.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: buf.Bytes()},
	})
	if err != nil {
		return nil, fmt.Errorf("LPRService.Recognize: rekognition: %w", err)
	}

	s.logger.Debugf("LPRService: Rekognition returned %d text blocks", len(result.TextDetections))
	var candidates []domain.TextCandidate
	for _, td := range result.TextDetections {
		if td.Type != types.TextTypesLine || td.DetectedText == nil {
			continue
		}
		var conf float32
		if td.Confidence != nil {
			conf = *td.Confidence / 100
		}
		candidates = append(candidates, domain.TextCandidate{
			Text:       strings.ToUpper(strings.TrimSpace(*td.DetectedText)),
			Confidence: conf,
		})
	}
	return candidates, nil
}
