package detection

// Response is the JSON document returned by POST /upload.
type Response struct {
	StatusCode int   `json:"statusCode,omitempty"`
	Body       *Body `json:"body,omitempty"`
}

// Body carries the analysis outcome. DetectionResult is nil when the
// endpoint answered without a verdict.
type Body struct {
	Message         string           `json:"message,omitempty"`
	DetectionResult *DetectionResult `json:"detection_result,omitempty"`
}

// DetectionResult mirrors the upstream detector output. Only the first
// element of Data is ever rendered.
type DetectionResult struct {
	Data []Frame `json:"data"`
}

// Frame holds the faces found in one input image.
type Frame struct {
	Index         int         `json:"index"`
	BoundingBoxes []Detection `json:"bounding_boxes"`
}

// Detection is a single localized face.
type Detection struct {
	// IsDeepfake is the probability in [0,1] that the face is synthetic.
	IsDeepfake float64 `json:"is_deepfake"`
	// BBoxConfidence is the probability in [0,1] that the face was
	// localized correctly.
	BBoxConfidence float64  `json:"bbox_confidence"`
	Vertices       []Vertex `json:"vertices,omitempty"`
}

// Vertex is a corner of a face box in source image pixels.
type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// UploadRequest is the body of POST /upload.
type UploadRequest struct {
	Image string `json:"image"`
}

// ErrorResponse is the body of a rejected request.
type ErrorResponse struct {
	Error string `json:"error"`
}
