package photos

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-jetbot/pkg/camera"
)

// encodeTraining decodes a frame (JPEG or raw BGR), resizes it to
// width x height, and re-encodes it at the given JPEG quality.
func encodeTraining(frame camera.Frame, width, height, quality int) ([]byte, error) {
	mat, err := frameToMat(frame)
	if err != nil {
		return nil, err
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("decoded frame is empty")
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(mat, &resized, image.Pt(width, height), 0, 0, gocv.InterpolationArea)

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, resized,
		[]int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// frameToMat converts a frame into an OpenCV Mat.
func frameToMat(frame camera.Frame) (gocv.Mat, error) {
	switch frame.Format {
	case camera.FormatBGR:
		expected := frame.Width * frame.Height * 3
		if len(frame.Data) != expected {
			return gocv.Mat{}, fmt.Errorf("raw frame is %d bytes, want %d", len(frame.Data), expected)
		}
		return gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Data)
	default:
		return gocv.IMDecode(frame.Data, gocv.IMReadColor)
	}
}
