package detection

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// YOLOConfig configures the in-process YOLOv8 backend.
type YOLOConfig struct {
	ModelPath        string
	ConfidenceThresh float32
	NMSThresh        float32
	InputSize        int
	Logger           *slog.Logger
}

// DefaultYOLOConfig returns defaults for yolov8n exported to ONNX.
func DefaultYOLOConfig() YOLOConfig {
	return YOLOConfig{
		ModelPath:        "yolov8n.onnx",
		ConfidenceThresh: 0.35,
		NMSThresh:        0.45,
		InputSize:        640,
		Logger:           slog.Default(),
	}
}

// YOLO runs YOLOv8 with OpenCV's DNN module.
type YOLO struct {
	mu     sync.Mutex
	net    gocv.Net
	cfg    YOLOConfig
	logger *slog.Logger
}

// NewYOLO loads the ONNX model at cfg.ModelPath.
func NewYOLO(cfg YOLOConfig) (*YOLO, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoModel, cfg.ModelPath)
	}
	if cfg.InputSize == 0 {
		cfg.InputSize = 640
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("detection: load model %s", cfg.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &YOLO{
		net:    net,
		cfg:    cfg,
		logger: cfg.Logger.With("component", "detection.yolo"),
	}, nil
}

// Detect runs one forward pass. Boxes are returned in frame pixels.
func (y *YOLO) Detect(ctx context.Context, jpeg []byte) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(jpeg) == 0 {
		return nil, ErrEmptyFrame
	}

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("detection: decode frame: %w", err)
	}
	defer img.Close()
	if img.Empty() {
		return nil, ErrEmptyFrame
	}

	y.mu.Lock()
	defer y.mu.Unlock()

	size := image.Pt(y.cfg.InputSize, y.cfg.InputSize)
	blob := gocv.BlobFromImage(img, 1.0/255.0, size, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	y.net.SetInput(blob, "")
	output := y.net.Forward("")
	defer output.Close()

	dets := y.parse(output, float32(img.Cols()), float32(img.Rows()))
	y.logger.Debug("frame detected", "count", len(dets))
	return dets, nil
}

// parse decodes a [1, 84, N] YOLOv8 tensor: 4 box values then 80 class scores
// per candidate, laid out column-major.
func (y *YOLO) parse(output gocv.Mat, frameW, frameH float32) []Detection {
	sizes := output.Size()
	if len(sizes) != 3 {
		return nil
	}
	attrs, candidates := sizes[1], sizes[2]

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil
	}

	scaleX := frameW / float32(y.cfg.InputSize)
	scaleY := frameH / float32(y.cfg.InputSize)

	var (
		boxes   []image.Rectangle
		scores  []float32
		classes []int
	)
	for i := 0; i < candidates; i++ {
		best, class := float32(0), 0
		for c := 4; c < attrs; c++ {
			if s := data[c*candidates+i]; s > best {
				best, class = s, c-4
			}
		}
		if best < y.cfg.ConfidenceThresh {
			continue
		}

		cx, cy := data[i], data[candidates+i]
		w, h := data[2*candidates+i], data[3*candidates+i]

		x0 := int((cx - w/2) * scaleX)
		y0 := int((cy - h/2) * scaleY)
		x1 := int((cx + w/2) * scaleX)
		y1 := int((cy + h/2) * scaleY)

		boxes = append(boxes, image.Rect(x0, y0, x1, y1))
		scores = append(scores, best)
		classes = append(classes, class)
	}
	if len(boxes) == 0 {
		return nil
	}

	keep := gocv.NMSBoxes(boxes, scores, y.cfg.ConfidenceThresh, y.cfg.NMSThresh)

	dets := make([]Detection, 0, len(keep))
	for _, idx := range keep {
		r := boxes[idx]
		dets = append(dets, Detection{
			ClassName:  ClassName(classes[idx]),
			Confidence: float64(scores[idx]),
			Box: Box{
				X: float64(r.Min.X),
				Y: float64(r.Min.Y),
				W: float64(r.Dx()),
				H: float64(r.Dy()),
			},
		})
	}
	return dets
}

// Close releases the network.
func (y *YOLO) Close() error {
	y.mu.Lock()
	defer y.mu.Unlock()
	y.net.Close()
	return nil
}

// ClassName maps a COCO class id to its name.
func ClassName(id int) string {
	if id < 0 || id >= len(COCOClasses) {
		return fmt.Sprintf("class_%d", id)
	}
	return COCOClasses[id]
}

// COCOClasses contains the 80 COCO class names in model order.
var COCOClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator",
	"book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

var _ Detector = (*YOLO)(nil)
