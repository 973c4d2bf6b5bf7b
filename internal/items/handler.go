package items

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rewearhq/rewear/internal/imaging"
	"github.com/rewearhq/rewear/internal/verification"
)

// PhotoStore persists processed listing photos. Storage mechanics live
// outside the core; the handler only needs a name back for the listing.
type PhotoStore interface {
	Save(ctx context.Context, data []byte) (string, error)
	Delete(ctx context.Context, name string) error
}

// DiskPhotoStore writes photos under one directory with generated names.
type DiskPhotoStore struct {
	Dir string
}

func (s DiskPhotoStore) Save(_ context.Context, data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating photo dir: %w", err)
	}
	name := uuid.New().String() + ".jpg"
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("writing photo: %w", err)
	}
	return name, nil
}

func (s DiskPhotoStore) Delete(_ context.Context, name string) error {
	return os.Remove(filepath.Join(s.Dir, filepath.Base(name)))
}

type Handler struct {
	svc      *Service
	verifier verification.Verifier
	photos   PhotoStore
}

func NewHandler(svc *Service, verifier verification.Verifier, photos PhotoStore) *Handler {
	return &Handler{svc: svc, verifier: verifier, photos: photos}
}

// Create lists a new item. The uploaded photos are verified server side and
// the listing only goes through when the gate clears or the uploader
// explicitly overrides a soft failure. Gate refusals carry the full decision
// so the client can explain the outcome; photos saved ahead of a refusal are
// removed again.
func (h *Handler) Create(c echo.Context) error {
	ownerID, ok := c.Get("user_id").(string)
	if !ok || ownerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	title := c.FormValue("title")
	description := c.FormValue("description")
	category := c.FormValue("category")
	override := c.FormValue("override") == "true"

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid multipart form"})
	}
	files := form.File["images"]
	if len(files) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one image is required"})
	}
	if len(files) > verification.MaxImagesPerListing {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "too many images"})
	}

	ctx := c.Request().Context()
	results := make([]verification.Result, 0, len(files))
	var names []string
	for _, file := range files {
		src, err := file.Open()
		if err != nil {
			results = append(results, verification.FailedResult("could not read uploaded image"))
			continue
		}
		photo, err := imaging.Process(src)
		_ = src.Close()
		if err != nil {
			results = append(results, verification.FailedResult(err.Error()))
			continue
		}

		result, err := h.verifier.Verify(ctx, photo.Data, description, category)
		if err != nil {
			result = verification.FailedResult("verifier unavailable")
		}
		results = append(results, result)

		name, err := h.photos.Save(ctx, photo.Data)
		if err != nil {
			h.discard(ctx, names)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store photos"})
		}
		names = append(names, name)
	}

	item, decision, err := h.svc.Create(ctx, CreateInput{
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Category:    category,
		Images:      names,
		Results:     results,
		Override:    override,
	})
	if err != nil {
		h.discard(ctx, names)
	}
	switch {
	case errors.Is(err, ErrInvalidListing):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, ErrListingBlocked):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":    "listing blocked by verification",
			"decision": decision,
		})
	case errors.Is(err, ErrOverrideRequired):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":    "listing requires verification override",
			"decision": decision,
		})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create listing"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"item":     item,
		"decision": decision,
	})
}

// discard removes photos written ahead of a refused listing, best effort.
func (h *Handler) discard(ctx context.Context, names []string) {
	for _, name := range names {
		_ = h.photos.Delete(ctx, name)
	}
}

// Get returns one listing.
func (h *Handler) Get(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing item id"})
	}

	item, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, ErrItemNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch item"})
	}
	return c.JSON(http.StatusOK, item)
}

// Mine lists the caller's own items.
func (h *Handler) Mine(c echo.Context) error {
	ownerID, ok := c.Get("user_id").(string)
	if !ok || ownerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	list, err := h.svc.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch items"})
	}
	if list == nil {
		list = []Item{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}
