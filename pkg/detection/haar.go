package detection

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/perchbot/go-gimbal/pkg/debug"
)

// Haar detects faces with an OpenCV Haar cascade.
type Haar struct {
	classifier gocv.CascadeClassifier
	config     Config
	mu         sync.Mutex // protects the classifier
}

// NewHaar loads the cascade file. A missing or unreadable cascade is a
// construction error; Detect never retries the load.
func NewHaar(cfg Config) (*Haar, error) {
	if cfg.CascadePath == "" {
		cfg.CascadePath = DefaultConfig().CascadePath
	}
	if cfg.ScaleFactor <= 1.0 {
		cfg.ScaleFactor = DefaultConfig().ScaleFactor
	}
	if cfg.MinNeighbors <= 0 {
		cfg.MinNeighbors = DefaultConfig().MinNeighbors
	}

	if _, err := os.Stat(cfg.CascadePath); err != nil {
		return nil, fmt.Errorf("cascade file not found: %s", cfg.CascadePath)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cfg.CascadePath) {
		classifier.Close()
		return nil, fmt.Errorf("load cascade %s failed", cfg.CascadePath)
	}

	return &Haar{classifier: classifier, config: cfg}, nil
}

// Detect finds faces in the JPEG image, in classifier order.
func (h *Haar) Detect(jpeg []byte) ([]Box, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	rects := h.classifier.DetectMultiScaleWithParams(
		gray,
		h.config.ScaleFactor,
		h.config.MinNeighbors,
		0,
		image.Pt(0, 0),
		image.Pt(0, 0),
	)

	var boxes []Box
	for _, r := range rects {
		boxes = append(boxes, Box{
			X: r.Min.X,
			Y: r.Min.Y,
			W: r.Dx(),
			H: r.Dy(),
			// Cascades do not score their hits.
			Confidence: 1.0,
		})
	}

	if len(boxes) > 0 {
		debug.TrackLog("👁️  Haar found %d face(s)\n", len(boxes))
	}

	return boxes, nil
}

// Close releases the classifier.
func (h *Haar) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.classifier.Close()
	return nil
}
