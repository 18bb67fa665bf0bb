package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	requests "github.com/frankli0324/go-requests"
	"github.com/frankli0324/go-requests/config"
)

const (
	exitOK = iota
	exitUsage
	exitTransport
	exitProtocol
	exitRedirect
	exitSecurity
)

type options struct {
	headers        []string
	data           string
	form           []string
	cookies        []string
	user           string
	proxy          string
	insecure       bool
	cacert         []string
	noRedirect     bool
	noCompress     bool
	connectTimeout time.Duration
	readTimeout    time.Duration
	configPath     string
	verbose        bool
	include        bool
	harPath        string
	query          string
}

var opts options

var rootCmd = &cobra.Command{
	Use:   "gohttp [METHOD] URL",
	Short: "Send one HTTP request and print the response",
	Long: `gohttp sends a request, following redirects and decompressing the
response, then prints the body. METHOD defaults to GET, or POST when a body
is given.`,
	Args:          cobra.RangeArgs(1, 2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	f := rootCmd.Flags()
	f.StringArrayVarP(&opts.headers, "header", "H", nil, "request header \"Name: value\", repeatable")
	f.StringVarP(&opts.data, "data", "d", "", "text body, @file reads it from file")
	f.StringArrayVar(&opts.form, "form", nil, "url-encoded form field name=value, repeatable")
	f.StringArrayVar(&opts.cookies, "cookie", nil, "cookie name=value, repeatable")
	f.StringVarP(&opts.user, "user", "u", "", "basic auth user:password")
	f.StringVar(&opts.proxy, "proxy", "", "proxy URL, http://, https:// or socks5://")
	f.BoolVarP(&opts.insecure, "insecure", "k", false, "accept any server certificate")
	f.StringArrayVar(&opts.cacert, "cacert", nil, "PEM file of a certificate to pin, repeatable")
	f.BoolVar(&opts.noRedirect, "no-redirect", false, "don't follow redirects")
	f.BoolVar(&opts.noCompress, "no-compress", false, "don't ask for compressed responses")
	f.DurationVar(&opts.connectTimeout, "connect-timeout", 0, "connect timeout, overrides the config")
	f.DurationVar(&opts.readTimeout, "read-timeout", 0, "read timeout, overrides the config")
	f.StringVar(&opts.configPath, "config", "", "YAML config file")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging to stderr")
	f.BoolVarP(&opts.include, "include", "i", false, "print the status line and headers")
	f.StringVar(&opts.harPath, "har", "", "write every exchange, redirects included, to this HAR file")
	f.StringVarP(&opts.query, "query", "q", "", "print only this gjson path of a JSON body")
}

func run(cmd *cobra.Command, args []string) (err error) {
	cfg := config.Default()
	if opts.configPath != "" {
		if cfg, err = config.Load(opts.configPath); err != nil {
			return usageError{err}
		}
	}

	req, err := buildRequest(args)
	if err != nil {
		return usageError{err}
	}
	if req, err = cfg.Apply(req); err != nil {
		return err
	}

	client := cfg.NewClient(newLogger(opts.verbose))
	if opts.harPath != "" {
		rec := requests.NewHARRecorder("gohttp")
		client.Use(rec.Middleware())
		defer func() {
			if werr := writeHAR(opts.harPath, rec); err == nil {
				err = werr
			}
		}()
	}
	resp, err := client.CtxDo(context.Background(), req)
	if err != nil {
		return err
	}
	defer resp.Discard()

	out := cmd.OutOrStdout()
	if opts.include {
		printHead(out, resp)
	}
	if opts.query != "" {
		return printQuery(out, resp, opts.query)
	}
	_, err = io.Copy(out, resp.Body)
	return err
}

func writeHAR(path string, rec *requests.HARRecorder) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := rec.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printQuery(w io.Writer, resp *requests.Response, path string) error {
	body, err := resp.Bytes()
	if err != nil {
		return err
	}
	if !gjson.ValidBytes(body) {
		return errors.New("response body is not JSON")
	}
	result := gjson.GetBytes(body, path)
	if !result.Exists() {
		return fmt.Errorf("no value at %q", path)
	}
	_, err = fmt.Fprintln(w, result.String())
	return err
}

func buildRequest(args []string) (*requests.Request, error) {
	method, target := "", args[len(args)-1]
	if len(args) == 2 {
		method = strings.ToUpper(args[0])
	}
	req := &requests.Request{
		URL:                target,
		ConnectTimeout:     opts.connectTimeout,
		ReadTimeout:        opts.readTimeout,
		DisableRedirect:    opts.noRedirect,
		DisableCompression: opts.noCompress,
		InsecureSkipVerify: opts.insecure,
		Session:            requests.NewSession(),
	}

	for _, h := range opts.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return nil, fmt.Errorf("header %q is not \"Name: value\"", h)
		}
		req.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	for _, c := range opts.cookies {
		name, value, _ := strings.Cut(c, "=")
		req.Cookies = append(req.Cookies, requests.Param{Name: name, Value: value})
	}
	if opts.user != "" {
		user, pass, _ := strings.Cut(opts.user, ":")
		req.BasicAuth = &requests.BasicAuth{User: user, Password: pass}
	}
	if opts.proxy != "" {
		p, err := requests.ParseProxy(opts.proxy)
		if err != nil {
			return nil, err
		}
		req.Proxy = p
	}
	for _, path := range opts.cacert {
		certs, err := requests.LoadPEMFile(path)
		if err != nil {
			return nil, err
		}
		req.Certificates = append(req.Certificates, certs...)
	}

	switch {
	case opts.data != "" && len(opts.form) > 0:
		return nil, errors.New("--data and --form are exclusive")
	case opts.data != "":
		text := opts.data
		if strings.HasPrefix(text, "@") {
			b, err := os.ReadFile(text[1:])
			if err != nil {
				return nil, err
			}
			text = string(b)
		}
		req.Body = requests.NewTextBody(text)
	case len(opts.form) > 0:
		params := make([]requests.Param, 0, len(opts.form))
		for _, kv := range opts.form {
			name, value, _ := strings.Cut(kv, "=")
			params = append(params, requests.Param{Name: name, Value: value})
		}
		req.Body = requests.NewFormBody(params...)
	}

	if method == "" {
		method = "GET"
		if req.Body != nil {
			method = "POST"
		}
	}
	req.Method = method
	return req, nil
}

func newLogger(verbose bool) *slog.Logger {
	if !verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func printHead(w io.Writer, resp *requests.Response) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	status := resp.Proto + " " + resp.Status
	switch {
	case resp.StatusCode >= 400:
		status = red(status)
	case resp.StatusCode >= 300:
		status = yellow(status)
	default:
		status = green(status)
	}
	fmt.Fprintln(w, status)
	for _, f := range resp.Headers {
		fmt.Fprintf(w, "%s: %s\n", cyan(f.Name), f.Value)
	}
	fmt.Fprintln(w)
}

type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

func exitCode(err error) int {
	var (
		ue usageError
		pe *requests.ProtocolError
		re *requests.RedirectError
		se *requests.SecurityConfigError
	)
	fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
	switch {
	case errors.As(err, &ue):
		return exitUsage
	case errors.As(err, &pe):
		return exitProtocol
	case errors.As(err, &re):
		return exitRedirect
	case errors.As(err, &se):
		return exitSecurity
	}
	return exitTransport
}
