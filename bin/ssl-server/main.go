// Command ssl-server is a TLS echo server demonstrating the ssl package:
// it accepts connections on a TLS endpoint, decrypts inbound traffic into
// a chunk queue, and writes it straight back out.  Certificates come from
// a combined PEM file, or from Let's Encrypt when -acme is given.
package main

import (
	"crypto/tls"
	"flag"
	"net"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/net/netutil"

	"github.com/gingogo/lighttpd2/chunk"
	"github.com/gingogo/lighttpd2/ssl"
)

var (
	listen      string
	pemFile     string
	caFile      string
	ciphers     string
	allowLegacy bool
	logNoise    bool
	acmeHost    string
	acmeCache   string
	maxConns    int
	readLimit   int64
)

func main() {
	flag.StringVar(&listen, "listen", "0.0.0.0:8443", "socket address")
	flag.StringVar(&pemFile, "pem", "", "PEM file with key and certificate")
	flag.StringVar(&caFile, "ca", "", "client CA bundle")
	flag.StringVar(&ciphers, "ciphers", "", "comma separated cipher suite names")
	flag.BoolVar(&allowLegacy, "allow-legacy", false, "allow pre-TLS1.2 clients")
	flag.BoolVar(&logNoise, "log-noise", false, "log routine handshake noise")
	flag.StringVar(&acmeHost, "acme", "", "obtain a certificate for this hostname via ACME instead of -pem")
	flag.StringVar(&acmeCache, "acme-cache", "acme-cache", "ACME certificate cache directory")
	flag.IntVar(&maxConns, "max-conns", 512, "maximum concurrent connections")
	flag.Int64Var(&readLimit, "read-limit", 256<<10, "inbound buffer limit per connection, bytes")
	flag.Parse()

	if err := ssl.Init(); err != nil {
		logrus.WithError(err).Fatal("ssl initialization failed")
	}
	sink := ssl.NewLogrusSink(logrus.StandardLogger())

	var cx *ssl.Context
	var err error
	switch {
	case acmeHost != "":
		m := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(acmeHost),
			Cache:      autocert.DirCache(acmeCache),
		}
		config := m.TLSConfig()
		config.MinVersion = tls.VersionTLS12
		cx, err = ssl.NewContextFromConfig(listen, config, logNoise, sink)
	default:
		cx, err = ssl.NewContext(ssl.Options{
			Listen:      listen,
			PEMFile:     pemFile,
			CAFile:      caFile,
			Ciphers:     ciphers,
			AllowLegacy: allowLegacy,
			LogNoise:    logNoise,
		}, sink)
	}
	if err != nil {
		logrus.WithError(err).Fatal("endpoint configuration failed")
	}

	ln, err := net.Listen("tcp", cx.Listen())
	if err != nil {
		logrus.WithError(err).Fatalf("listen on %s failed", cx.Listen())
	}
	ln = netutil.LimitListener(ln, maxConns)
	logrus.Infof("echoing TLS on %s", cx.Listen())

	for {
		transport, err := ln.Accept()
		if err != nil {
			logrus.WithError(err).Fatal("accept failed")
		}
		go serve(cx, transport)
	}
}

func serve(cx *ssl.Context, transport net.Conn) {
	defer transport.Close()

	conn, err := cx.OnAccept(transport)
	if err != nil {
		// This connection is lost; the server keeps going.
		logrus.WithError(err).Error("session setup failed")
		return
	}
	defer cx.OnClose(conn)

	in := chunk.NewQueue()
	lim := chunk.NewLimiter(readLimit)
	in.SetLimiter(lim)
	out := chunk.NewQueue()

	for {
		st := cx.OnReadable(conn, in, lim)
		switch {
		case st.Status == ssl.StatusSuccess:
			echo(in, out)
			if !flush(cx, conn, out) {
				return
			}
		case st.Status == ssl.StatusWantRead || st.Status == ssl.StatusWantWrite:
			<-conn.Ready()
		default:
			if st.Status.Failed() {
				logrus.Warnf("connection from %v ended: %s", transport.RemoteAddr(), st)
			}
			return
		}
	}
}

func echo(in, out *chunk.Queue) {
	for in.Len() > 0 {
		v := in.PeekFront(16 << 10)
		c := make([]byte, len(v))
		copy(c, v)
		out.Append(c)
		in.SkipFront(len(v))
	}
}

func flush(cx *ssl.Context, conn *ssl.Conn, out *chunk.Queue) bool {
	for out.Len() > 0 {
		st := cx.OnWritable(conn, out, 1<<20)
		switch {
		case st.Status == ssl.StatusSuccess:
		case st.Status == ssl.StatusWantRead || st.Status == ssl.StatusWantWrite:
			<-conn.Ready()
		default:
			return false
		}
	}
	return true
}
