package ssl

import (
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Options configures one TLS listening endpoint.  PEMFile must contain the
// certificate chain and the private key; Listen and PEMFile are mandatory.
type Options struct {
	// Listen is the socket address the endpoint will be bound to.  The
	// Context does not listen itself; the address is carried for the code
	// that does.
	Listen string
	// PEMFile contains key and certificate for the key (PEM format).
	PEMFile string
	// CAFile contains a certificate chain clients may be verified against.
	CAFile string
	// Ciphers is a comma or colon separated list of allowed cipher suite
	// names.  Empty means the library defaults.
	Ciphers string
	// AllowLegacy permits legacy protocol versions (pre-TLS 1.2).
	// Disabled by default.
	AllowLegacy bool
	// LogNoise forwards routine handshake-noise diagnostics to the sink.
	LogNoise bool
}

// ParseOptions validates a setup hash of the form the configuration
// language delivers.  Every value is type checked; unrecognized keys are
// rejected.
func ParseOptions(setup map[string]interface{}) (Options, error) {
	var opts Options
	for key, val := range setup {
		switch key {
		case "listen":
			s, ok := val.(string)
			if !ok {
				return opts, errors.Errorf("ssl setup: listen expects a string parameter")
			}
			opts.Listen = s
		case "pemfile":
			s, ok := val.(string)
			if !ok {
				return opts, errors.Errorf("ssl setup: pemfile expects a string parameter")
			}
			opts.PEMFile = s
		case "ca-file":
			s, ok := val.(string)
			if !ok {
				return opts, errors.Errorf("ssl setup: ca-file expects a string parameter")
			}
			opts.CAFile = s
		case "ciphers":
			s, ok := val.(string)
			if !ok {
				return opts, errors.Errorf("ssl setup: ciphers expects a string parameter")
			}
			opts.Ciphers = s
		case "allow-legacy":
			b, ok := val.(bool)
			if !ok {
				return opts, errors.Errorf("ssl setup: allow-legacy expects a boolean parameter")
			}
			opts.AllowLegacy = b
		case "log-noise":
			b, ok := val.(bool)
			if !ok {
				return opts, errors.Errorf("ssl setup: log-noise expects a boolean parameter")
			}
			opts.LogNoise = b
		default:
			return opts, errors.Errorf("ssl setup: unrecognized option %q", key)
		}
	}
	if opts.Listen == "" {
		return opts, errors.New("ssl setup: needs a listen parameter")
	}
	if opts.PEMFile == "" {
		return opts, errors.New("ssl setup: needs a pemfile")
	}
	return opts, nil
}

// Context is the shared server-side TLS configuration for one listening
// endpoint.  It is immutable after construction and may be shared by any
// number of connections.
type Context struct {
	config   *tls.Config
	sink     Sink
	logNoise bool
	listen   string
}

var (
	initOnce sync.Once
	initErr  error
)

// Init performs process-wide initialization and must have succeeded before
// the first Context is created.  It verifies the system entropy source is
// usable.  Safe to call more than once.
func Init() error {
	initOnce.Do(func() {
		var probe [16]byte
		if _, err := rand.Read(probe[:]); err != nil {
			initErr = errors.Wrap(err, "ssl: entropy source unusable")
		}
	})
	return initErr
}

// NewContext builds the shared TLS configuration for one endpoint.  Errors
// name the offending option; an endpoint with a bad configuration must not
// start.
func NewContext(opts Options, sink Sink) (*Context, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = NopSink{}
	}
	if opts.Listen == "" {
		return nil, errors.New("ssl: needs a listen parameter")
	}
	if opts.PEMFile == "" {
		return nil, errors.New("ssl: needs a pemfile")
	}

	cert, err := tls.LoadX509KeyPair(opts.PEMFile, opts.PEMFile)
	if err != nil {
		return nil, errors.Wrapf(err, "ssl: pemfile %q", opts.PEMFile)
	}

	config := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if opts.AllowLegacy {
		config.MinVersion = tls.VersionTLS10
	}

	if opts.CAFile != "" {
		pem, err := os.ReadFile(opts.CAFile)
		if err != nil {
			return nil, errors.Wrapf(err, "ssl: ca-file %q", opts.CAFile)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.Errorf("ssl: ca-file %q: no certificates found", opts.CAFile)
		}
		config.ClientCAs = pool
	}

	if opts.Ciphers != "" {
		suites, err := cipherSuitesByName(opts.Ciphers)
		if err != nil {
			return nil, err
		}
		config.CipherSuites = suites
	}

	return &Context{
		config:   config,
		sink:     sink,
		logNoise: opts.LogNoise,
		listen:   opts.Listen,
	}, nil
}

// NewContextFromConfig builds a Context around an externally constructed
// TLS configuration, for certificate sources the pemfile option cannot
// express (ACME managers, SNI-dispatching loaders).  The configuration
// must not be mutated afterwards.
func NewContextFromConfig(listen string, config *tls.Config, logNoise bool, sink Sink) (*Context, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	if listen == "" {
		return nil, errors.New("ssl: needs a listen parameter")
	}
	if config == nil {
		return nil, errors.New("ssl: nil TLS configuration")
	}
	if sink == nil {
		sink = NopSink{}
	}
	return &Context{
		config:   config,
		sink:     sink,
		logNoise: logNoise,
		listen:   listen,
	}, nil
}

// Listen returns the configured socket address for this endpoint.
func (cx *Context) Listen() string {
	return cx.listen
}

// TLSConfig returns the shared configuration.  Callers must treat it as
// read-only.
func (cx *Context) TLSConfig() *tls.Config {
	return cx.config
}

// cipherSuitesByName resolves a comma or colon separated cipher list
// against the library's suite tables.
func cipherSuitesByName(list string) ([]uint16, error) {
	byName := map[string]uint16{}
	for _, cs := range tls.CipherSuites() {
		byName[cs.Name] = cs.ID
	}
	for _, cs := range tls.InsecureCipherSuites() {
		byName[cs.Name] = cs.ID
	}

	var ids []uint16
	for _, name := range strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == ':'
	}) {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id, ok := byName[name]
		if !ok {
			return nil, errors.Errorf("ssl: ciphers: unknown cipher suite %q", name)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.New("ssl: ciphers: empty cipher list")
	}
	return ids, nil
}

// OnAccept creates the session context for a freshly accepted transport
// connection.  The transport stays owned by the caller.  On error the
// connection should be dropped; the endpoint keeps serving.
func (cx *Context) OnAccept(transport net.Conn) (*Conn, error) {
	eng, err := newTLSEngine(transport, cx.config)
	if err != nil {
		return nil, errors.Wrap(err, "ssl: new session")
	}
	tracef(traceTypeSession, "accepted session from %v", transport.RemoteAddr())
	return NewConn(eng, cx.sink, cx.logNoise), nil
}
