package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/feildrixliemdra/library-admin/internal/constants"
	libraryhttp "github.com/feildrixliemdra/library-admin/internal/http"
	"github.com/feildrixliemdra/library-admin/internal/upload"
	"github.com/feildrixliemdra/library-admin/pkg/library"
)

const shutdownTimeout = 5 * time.Second

// NewUploadCommand creates the upload command group.
func NewUploadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a cover image",
		Long: `Upload a cover image to the storage provider and print its URL.

Signing uses imagekit.private_key when it is configured, otherwise the
parameters are fetched from imagekit.auth_endpoint.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zapLog, err := newZapLogger(viper.GetBool("verbose"))
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = zapLog.Sync() }()

			uploader, err := newUploader(loadConfig(), newLibraryLogger(zapLog))
			if err != nil {
				return err
			}

			result, err := uploader.UploadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return writeOutput(cmd.OutOrStdout(), result, func(w io.Writer) error {
				_, _ = fmt.Fprintln(w, result.URL)

				return nil
			})
		},
	}

	cmd.AddCommand(newUploadAuthServerCommand())

	return cmd
}

func newUploadAuthServerCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "auth-server",
		Short: "Serve upload authentication parameters",
		Long:  "Serve signed upload parameters at " + constants.UploadAuthPath + " using imagekit.private_key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			signer, err := upload.NewSigner(config.ImageKit.PrivateKey)
			if err != nil {
				return err
			}

			zapLog, err := newZapLogger(viper.GetBool("verbose"))
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = zapLog.Sync() }()

			logger := newLibraryLogger(zapLog)

			server := &http.Server{
				Addr:              addr,
				Handler:           upload.NewRouter(signer, logger),
				ReadHeaderTimeout: constants.ShortHTTPTimeout,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)

			go func() {
				errCh <- server.ListenAndServe()
			}()

			logger.Info("upload auth server listening", map[string]interface{}{"addr": addr, "path": constants.UploadAuthPath})
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Serving upload auth on %s%s\n", addr, constants.UploadAuthPath)

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}

				return fmt.Errorf("upload auth server failed: %w", err)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			err = server.Shutdown(shutdownCtx)
			if err != nil {
				return fmt.Errorf("failed to shut down upload auth server: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", constants.DefaultAuthServerAddr, "listen address")

	return cmd
}

// newUploader builds an upload client from the ImageKit settings.
func newUploader(config *Config, logger library.Logger) (*upload.Client, error) {
	settings := config.ImageKit

	var (
		auth upload.AuthSource
		err  error
	)

	switch {
	case settings.PrivateKey != "":
		auth, err = upload.NewSigner(settings.PrivateKey)
	case settings.AuthEndpoint != "":
		auth, err = upload.NewRemoteAuth(settings.AuthEndpoint,
			libraryhttp.WithTimeout(constants.ShortHTTPTimeout),
			libraryhttp.WithLogger(logger),
		)
	default:
		err = constants.ErrPrivateKeyRequired
	}

	if err != nil {
		return nil, err
	}

	opts := []upload.Option{upload.WithLogger(logger)}
	if settings.UploadURL != "" {
		opts = append(opts, upload.WithUploadURL(settings.UploadURL))
	}

	return upload.NewClient(settings.PublicKey, auth, opts...)
}

// uploadCover uploads path and returns the stored file's URL.
func uploadCover(cmd *cobra.Command, app *App, path string) (string, error) {
	uploader, err := newUploader(app.Config, app.Logger)
	if err != nil {
		return "", err
	}

	result, err := uploader.UploadFile(cmd.Context(), path)
	if err != nil {
		app.Notifier.ShowError(err, "upload cover")

		return "", reported(err)
	}

	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Uploaded cover %s\n", result.URL)

	return result.URL, nil
}
