package mjpeg

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-jetbot/pkg/camera"
)

// encodeJPEG turns a raw BGR frame into JPEG bytes at the given quality.
func encodeJPEG(frame camera.Frame, quality int) ([]byte, error) {
	expected := frame.Width * frame.Height * 3
	if len(frame.Data) != expected {
		return nil, fmt.Errorf("raw frame is %d bytes, want %d", len(frame.Data), expected)
	}

	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Data)
	if err != nil {
		return nil, err
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("frame mat is empty")
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat,
		[]int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
