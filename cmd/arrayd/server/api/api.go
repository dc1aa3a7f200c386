package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzhttp"
	"github.com/pkg/errors"

	"github.com/sincaw/arraystream/cmd/arrayd/server/common"
	"github.com/sincaw/arraystream/cmd/arrayd/server/telemetry"
	"github.com/sincaw/arraystream/cmd/arrayd/server/utils"
	"github.com/sincaw/arraystream/pkg/store"
)

const (
	uriVectors  = "/Vectors"
	uriMatrices = "/Matrices"
	uriAdd      = "/add"
	uriMultiply = "/multiply"
	uriRPC      = "/rpc"

	defaultArrowChunk = 1 << 16
)

type Api struct {
	ctx    context.Context
	arrays store.Store
	ins    *telemetry.Instruments
	config *common.Config
	logger *utils.Log

	// bytes read from a request body at most
	maxBody int64
}

// New Api instance serving the arrays of one store namespace
func New(ctx context.Context, arrays store.Store, config *common.Config, ins *telemetry.Instruments, logger *utils.Log) *Api {
	return &Api{
		ctx:     ctx,
		arrays:  arrays,
		ins:     ins,
		config:  config,
		logger:  logger,
		maxBody: maxBodyBytes,
	}
}

// Handler returns the routed, instrumented and optionally gzipped api
func (a *Api) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(a.instrument, a.limitBody)

	r.HandleFunc(uriVectors, a.PostVectorHandler).Methods("POST")
	r.HandleFunc(uriMatrices, a.PostMatrixHandler).Methods("POST")
	r.HandleFunc(uriVectors+"/{id:[0-9]+}", a.GetVectorHandler).Methods("GET")
	r.HandleFunc(uriMatrices+"/{id:[0-9]+}", a.GetMatrixHandler).Methods("GET")
	r.HandleFunc(uriVectors+"/{id:[0-9]+}", a.DeleteHandler(store.KindVector)).Methods("DELETE")
	r.HandleFunc(uriMatrices+"/{id:[0-9]+}", a.DeleteHandler(store.KindMatrix)).Methods("DELETE")
	r.HandleFunc(uriVectors+"/{id:[0-9]+}/arrow", a.ArrowHandler).Methods("GET")

	r.HandleFunc(uriAdd+uriVectors, a.OpsHandler(opAddVectors)).Methods("GET", "POST")
	r.HandleFunc(uriMultiply+uriVectors, a.OpsHandler(opMultiplyVectors)).Methods("GET", "POST")
	r.HandleFunc(uriAdd+uriMatrices, a.OpsHandler(opAddMatrices)).Methods("GET", "POST")
	r.HandleFunc(uriMultiply+uriMatrices, a.OpsHandler(opMultiplyMatrices)).Methods("GET", "POST")

	r.Handle(uriRPC, a.rpcServer()).Methods("POST")

	if a.config.REST.Compress {
		return gzhttp.GzipHandler(r)
	}
	return r
}

// limitBody fails reads past maxBody bytes of any request body
func (a *Api) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, a.maxBody)
		next.ServeHTTP(w, r)
	})
}

func (a *Api) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.Method + " " + r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				name = r.Method + " " + tpl
			}
		}
		ctx, call := a.ins.Start(r.Context(), name)
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r.WithContext(ctx))

		var err error
		if sw.status >= http.StatusBadRequest {
			err = errors.Errorf("%d %s", sw.status, http.StatusText(sw.status))
		}
		call.End(err)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Serve http server on the configured address
func (a *Api) Serve() error {
	lis, err := net.Listen("tcp", a.config.REST.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", a.config.REST.Addr)
	}
	return a.ServeListener(lis)
}

// ServeListener serves on lis until the api context is done.
func (a *Api) ServeListener(lis net.Listener) error {
	srv := &http.Server{
		Handler:      a.Handler(),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	go func() {
		<-a.ctx.Done()
		a.logger.Infof("stopping http server on %s", lis.Addr())
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			a.logger.Errorf("shutdown server fail %v", err)
		}
	}()
	a.logger.Infof("serving on http://%s", lis.Addr())
	err := srv.Serve(lis)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
