package detection

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

var (
	fakeColor      = color.NRGBA{R: 0xe5, G: 0x3e, B: 0x3e, A: 0xff}
	authenticColor = color.NRGBA{R: 0x38, G: 0xa1, B: 0x69, A: 0xff}
)

// overlayStroke is the box outline width in pixels.
const overlayStroke = 3

// DrawOverlay returns a copy of src with a rectangle around every detection
// that carries vertices. Boxes are clipped to the image bounds.
func DrawOverlay(src image.Image, detections []Detection) *image.NRGBA {
	dst := imaging.Clone(src)
	bounds := dst.Bounds()
	for _, d := range detections {
		rect, ok := boxOf(d)
		if !ok {
			continue
		}
		rect = rect.Add(bounds.Min).Intersect(bounds)
		if rect.Empty() {
			continue
		}
		c := authenticColor
		if d.IsDeepfake > DeepfakeThreshold {
			c = fakeColor
		}
		strokeRect(dst, rect, c)
	}
	return dst
}

// LoadImage decodes an encoded image, applying EXIF orientation.
func LoadImage(path string) (image.Image, error) {
	return imaging.Open(path, imaging.AutoOrientation(true))
}

// SaveOverlay draws the boxes of every card in report onto src and writes it to
// path; the format follows the file extension.
func SaveOverlay(src image.Image, report *Report, path string) error {
	detections := make([]Detection, 0, len(report.Cards))
	for _, card := range report.Cards {
		detections = append(detections, card.Detection)
	}
	return imaging.Save(DrawOverlay(src, detections), path)
}

func boxOf(d Detection) (image.Rectangle, bool) {
	if len(d.Vertices) < 2 {
		return image.Rectangle{}, false
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, v := range d.Vertices {
		minX = math.Min(minX, v.X)
		minY = math.Min(minY, v.Y)
		maxX = math.Max(maxX, v.X)
		maxY = math.Max(maxY, v.Y)
	}
	return image.Rect(int(minX), int(minY), int(math.Ceil(maxX)), int(math.Ceil(maxY))), true
}

func strokeRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	for i := 0; i < overlayStroke; i++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			setIn(img, x, r.Min.Y+i, c)
			setIn(img, x, r.Max.Y-1-i, c)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			setIn(img, r.Min.X+i, y, c)
			setIn(img, r.Max.X-1-i, y, c)
		}
	}
}

func setIn(img *image.NRGBA, x, y int, c color.NRGBA) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.SetNRGBA(x, y, c)
	}
}
