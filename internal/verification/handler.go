package verification

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rewearhq/rewear/internal/imaging"
)

// MaxImagesPerListing caps how many photos one listing decision covers.
const MaxImagesPerListing = 5

type Handler struct {
	verifier Verifier
	gate     Gate
}

func NewHandler(verifier Verifier, gate Gate) *Handler {
	return &Handler{verifier: verifier, gate: gate}
}

// VerifyImage scores a single uploaded image against a description and
// category, so uploaders can check photos one at a time before listing.
func (h *Handler) VerifyImage(c echo.Context) error {
	description := c.FormValue("description")
	category := c.FormValue("category")
	if description == "" || category == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "description and category are required"})
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no image uploaded"})
	}

	result := h.verifyFile(c.Request().Context(), file, description, category)
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"verification": result,
	})
}

// VerifyItem scores every uploaded image and returns the aggregate listing
// decision alongside the per-image results.
func (h *Handler) VerifyItem(c echo.Context) error {
	title := c.FormValue("title")
	description := c.FormValue("description")
	category := c.FormValue("category")
	if title == "" || description == "" || category == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title, description and category are required"})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid multipart form"})
	}
	files := form.File["images"]
	if len(files) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no images uploaded"})
	}
	if len(files) > MaxImagesPerListing {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "too many images"})
	}

	results := make([]Result, 0, len(files))
	for _, file := range files {
		results = append(results, h.verifyFile(c.Request().Context(), file, description, category))
	}
	decision := h.gate.Evaluate(results)

	recommendation := "All images match the description"
	if !decision.AllMatch {
		recommendation = "Some images do not match the description"
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":              true,
		"all_images_match":     decision.AllMatch,
		"average_confidence":   decision.AvgConfidence,
		"decision":             decision,
		"verification_results": results,
		"recommendation":       recommendation,
	})
}

// verifyFile normalizes the upload and runs the verifier. Any failure along
// the way folds into a failed result: verifier trouble must read as a
// rejection, never as a pass.
func (h *Handler) verifyFile(ctx context.Context, file *multipart.FileHeader, description, category string) Result {
	src, err := file.Open()
	if err != nil {
		return FailedResult("could not read uploaded image")
	}
	defer src.Close()

	photo, err := imaging.Process(src)
	if err != nil {
		return FailedResult(err.Error())
	}

	result, err := h.verifier.Verify(ctx, photo.Data, description, category)
	if err != nil {
		return FailedResult("verifier unavailable")
	}
	return result
}
