package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/mapfold/roadweld/pkg/datastructure"
	"github.com/mapfold/roadweld/pkg/server"
	"github.com/mapfold/roadweld/pkg/server/rest/service"
	"github.com/mapfold/roadweld/pkg/shortroads"
	"github.com/mapfold/roadweld/pkg/snap"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

type ShortRoadService interface {
	ShortRoads(ctx context.Context) ([]service.ShortRoadDetail, error)
	Classify(ctx context.Context, opts shortroads.Options) ([]datastructure.RoadID, error)
	NearestRoads(ctx context.Context, lat, lon float64, k int) ([]snap.NearbyRoad, error)
}

type ShortRoadHandler struct {
	svc ShortRoadService
}

func ShortRoadRouter(r *chi.Mux, svc ShortRoadService) {
	handler := &ShortRoadHandler{svc}

	r.Group(func(r chi.Router) {
		r.Route("/api/short-roads", func(r chi.Router) {
			r.Get("/", handler.ShortRoads)
			r.Post("/classify", handler.Classify)
		})
		r.Route("/api/roads", func(r chi.Router) {
			r.Post("/near", handler.NearestRoads)
		})
	})
}

type RoadIDResponse struct {
	I1  int64 `json:"i1"`
	I2  int64 `json:"i2"`
	Idx int   `json:"idx"`
}

func renderRoadID(id datastructure.RoadID) RoadIDResponse {
	return RoadIDResponse{I1: int64(id.I1), I2: int64(id.I2), Idx: id.Idx}
}

type ShortRoadsResponse struct {
	Roads []struct {
		ID        RoadIDResponse `json:"id"`
		RoadClass string         `json:"road_class"`
		Polyline  string         `json:"polyline"`
	} `json:"roads"`
}

func RenderShortRoadsResponse(details []service.ShortRoadDetail) *ShortRoadsResponse {
	resp := &ShortRoadsResponse{Roads: make([]struct {
		ID        RoadIDResponse `json:"id"`
		RoadClass string         `json:"road_class"`
		Polyline  string         `json:"polyline"`
	}, 0, len(details))}
	for _, d := range details {
		resp.Roads = append(resp.Roads, struct {
			ID        RoadIDResponse `json:"id"`
			RoadClass string         `json:"road_class"`
			Polyline  string         `json:"polyline"`
		}{
			ID:        renderRoadID(d.ID),
			RoadClass: d.RoadClass,
			Polyline:  d.Polyline,
		})
	}
	return resp
}

func (h *ShortRoadHandler) ShortRoads(w http.ResponseWriter, r *http.Request) {
	details, err := h.svc.ShortRoads(r.Context())
	if err != nil {
		render.Render(w, r, ErrInternalServerErrorRend(server.ErrInternalServerError))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderShortRoadsResponse(details))
}

type ClassifyRequest struct {
	ConsolidateAll       bool   `json:"consolidate_all"`
	SignalClusters       bool   `json:"signal_clusters"`
	DogLegs              bool   `json:"dog_legs"`
	RejectNearlyParallel bool   `json:"reject_nearly_parallel"`
	OverridePath         string `json:"override_path"`
}

func (s *ClassifyRequest) Bind(r *http.Request) error {
	return nil
}

type ClassifyResponse struct {
	Flagged []RoadIDResponse `json:"flagged"`
}

func (h *ShortRoadHandler) Classify(w http.ResponseWriter, r *http.Request) {
	data := &ClassifyRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	flagged, err := h.svc.Classify(r.Context(), shortroads.Options{
		ConsolidateAll:       data.ConsolidateAll,
		SignalClusters:       data.SignalClusters,
		DogLegs:              data.DogLegs,
		RejectNearlyParallel: data.RejectNearlyParallel,
		OverridePath:         data.OverridePath,
	})
	if err != nil {
		if errors.Is(err, shortroads.ErrOverrideRoadNotFound) {
			render.Render(w, r, ErrInvalidRequest(err))
			return
		}
		render.Render(w, r, ErrInternalServerErrorRend(server.ErrInternalServerError))
		return
	}

	resp := &ClassifyResponse{Flagged: make([]RoadIDResponse, 0, len(flagged))}
	for _, id := range flagged {
		resp.Flagged = append(resp.Flagged, renderRoadID(id))
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

type NearestRoadsRequest struct {
	Lat float64 `json:"lat" validate:"required,lt=90,gt=-90"`
	Lon float64 `json:"lon" validate:"required,lt=180,gt=-180"`
	K   int     `json:"k" validate:"required,gt=0,lte=50"`
}

func (s *NearestRoadsRequest) Bind(r *http.Request) error {
	if s.K == 0 {
		return errors.New("invalid request")
	}
	return nil
}

type NearestRoadsResponse struct {
	Roads []struct {
		ID       RoadIDResponse `json:"id"`
		Distance float64        `json:"distance"`
	} `json:"roads"`
}

func RenderNearestRoadsResponse(nearby []snap.NearbyRoad) *NearestRoadsResponse {
	resp := &NearestRoadsResponse{Roads: make([]struct {
		ID       RoadIDResponse `json:"id"`
		Distance float64        `json:"distance"`
	}, 0, len(nearby))}
	for _, n := range nearby {
		resp.Roads = append(resp.Roads, struct {
			ID       RoadIDResponse `json:"id"`
			Distance float64        `json:"distance"`
		}{
			ID:       renderRoadID(n.ID),
			Distance: n.DistanceMeters,
		})
	}
	return resp
}

func (h *ShortRoadHandler) NearestRoads(w http.ResponseWriter, r *http.Request) {
	data := &NearestRoadsRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	validate := validator.New()
	if err := validate.Struct(*data); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		render.Render(w, r, ErrValidation(err, vv))
		return
	}

	nearby, err := h.svc.NearestRoads(r.Context(), data.Lat, data.Lon, data.K)
	if err != nil {
		render.Render(w, r, ErrInternalServerErrorRend(server.ErrInternalServerError))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderNearestRoadsResponse(nearby))
}

// ErrResponse renderer type for handling all sorts of errors.
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText    string   `json:"status"`          // user-level status message
	AppCode       int64    `json:"code,omitempty"`  // application-specific error code
	ErrorText     string   `json:"error,omitempty"` // application-level error message, for debugging
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrInternalServerErrorRend(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 500,
		StatusText:     "Internal server error.",
		ErrorText:      err.Error(),
	}
}

func ErrValidation(err error, validationErrors []error) render.Renderer {
	errsText := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		errsText = append(errsText, e.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  errsText,
	}
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	validatorErrs := err.(validator.ValidationErrors)
	for _, e := range validatorErrs {
		translatedErr := errors.New(e.Translate(trans))
		errs = append(errs, translatedErr)
	}
	return errs
}
