// Command s25web serves the entries of an .s25 archive over HTTP.
//
// Besides the image routes of package web, /debug/requests shows recent
// request traces.
package main

import (
	"flag"
	"net/http"
	"os"
	"strings"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/common-nighthawk/go-figure"
	"github.com/golang/glog"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	_ "golang.org/x/net/trace"

	"badc0de.net/pkg/go-s25/paths"
	"badc0de.net/pkg/go-s25/web"
)

var (
	listenAddress = flag.String("listen_address", ":8080", "http listen address for s25web")
	compress      = flag.Bool("compress", true, "whether to gzip responses when the client accepts it")

	archivePath string
)

func main() {
	paths.SetupFilePathFlag("archive.s25", "archive", &archivePath)
	flagutil.Parse()

	if archivePath == "" {
		glog.Exit("no archive found; pass -archive or set " + paths.EnvVar)
	}
	a, err := paths.OpenArchive(archivePath)
	if err != nil {
		glog.Exitf("opening archive: %v", err)
	}
	defer a.Close()

	for _, line := range strings.Split(figure.NewFigure("s25web", "", true).String(), "\n") {
		if strings.TrimSpace(line) != "" {
			glog.Info(line)
		}
	}
	glog.Infof("%s: %d entries in %d layers, signature %08x", archivePath, a.TotalEntries(), a.TotalLayers(), a.Signature())

	r := mux.NewRouter()
	web.NewHandler(a, archivePath).RegisterRoutes(r)
	r.PathPrefix("/debug/").Handler(http.DefaultServeMux)

	var h http.Handler = r
	if *compress {
		h = handlers.CompressHandler(h)
	}
	h = handlers.LoggingHandler(os.Stderr, h)

	glog.Infof("listening on %s", *listenAddress)
	glog.Fatal(http.ListenAndServe(*listenAddress, h))
}
