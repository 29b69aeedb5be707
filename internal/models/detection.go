package models

// DetectionResult is one face as reported by the FER server.
// Box is normalized [y1, x1, y2, x2].
type DetectionResult struct {
	Label      string    `json:"label"`
	Confidence float32   `json:"confidence"`
	Box        []float32 `json:"box"`
}

// Box2D is a face box in pixel coordinates of the frame it was detected on.
type Box2D struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`

	ClassName string  `json:"class_name"`
	Score     float32 `json:"score"`
}

// ToBox2D scales a normalized result to a width x height frame.
// ok is false when the box does not carry four coordinates.
func (r DetectionResult) ToBox2D(width, height int) (Box2D, bool) {
	if len(r.Box) != 4 {
		return Box2D{}, false
	}

	w := float32(width)
	h := float32(height)

	return Box2D{
		Y1:        int(r.Box[0] * h),
		X1:        int(r.Box[1] * w),
		Y2:        int(r.Box[2] * h),
		X2:        int(r.Box[3] * w),
		ClassName: r.Label,
		Score:     r.Confidence,
	}, true
}
