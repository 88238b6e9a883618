package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/vnoc/incident-tracker/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// multipartOverhead leaves room for form boundaries around the largest upload.
const multipartOverhead = 1 << 20

// ServerOptions configures the fiber application.
type ServerOptions struct {
	AppName        string
	MaxUploadBytes int64
	RequestTimeout time.Duration
	Logger         *zap.Logger
	Metrics        *observability.Metrics
}

// NewServer builds the fiber app with the jsoniter codec and the global
// middleware chain. Routes are added with RegisterRoutes.
func NewServer(opts ServerOptions) *fiber.App {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	bodyLimit := fiber.DefaultBodyLimit
	if limit := int(opts.MaxUploadBytes) + multipartOverhead; limit > bodyLimit {
		bodyLimit = limit
	}
	app := fiber.New(fiber.Config{
		AppName:               opts.AppName,
		BodyLimit:             bodyLimit,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, opts.Logger, opts.Metrics, opts.RequestTimeout)
	return app
}
