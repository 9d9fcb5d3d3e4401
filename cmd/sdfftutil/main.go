// Command sdfftutil is a thin driver over the sdfft module's top-level
// operations (mpn-mul, poly-mul-mid, poly-mul-auto, poly-mul-xpnm1), built as
// an urfave/cli app the way _examples/xtaci-kcptun/client/main.go and
// server/main.go structure their flag sets and subcommands.
package main

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/thesyncim/sdfft/dispatch"
	"github.com/thesyncim/sdfft/mpctx"
	"github.com/thesyncim/sdfft/mpmul"
	"github.com/thesyncim/sdfft/polymul"
	"github.com/thesyncim/sdfft/sdfft"
)

// VERSION is injected by buildflags.
var VERSION = "SELFBUILD"

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetOutput(os.Stdout)
	return l
}

func main() {
	app := cli.NewApp()
	app.Name = "sdfftutil"
	app.Usage = "small-prime NTT multiplication utilities"
	app.Version = VERSION
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "loglevel",
			Value: "info",
			Usage: "panic, fatal, error, warn, info, debug, trace",
		},
	}
	app.Before = func(c *cli.Context) error {
		lvl, err := logrus.ParseLevel(c.String("loglevel"))
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		log.SetLevel(lvl)
		return nil
	}
	app.Commands = []cli.Command{
		mpnMulCommand,
		polyMulMidCommand,
		polyMulAutoCommand,
		polyMulXpnm1Command,
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("sdfftutil: fatal error")
	}
}

var mpnMulCommand = cli.Command{
	Name:      "mpn-mul",
	Usage:     "multiply two hex big integers via the multi-prime sd-FFT pipeline",
	ArgsUsage: "<a-hex> <b-hex>",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "seed",
			Value: "1108307720798209",
			Usage: "seed prime the multi-prime context is grown from",
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return cli.NewExitError("mpn-mul requires exactly two hex operands", 1)
		}
		a, err := parseHexWords(c.Args().Get(0))
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		b, err := parseHexWords(c.Args().Get(1))
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}

		seed, err := strconv.ParseUint(c.String("seed"), 10, 64)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		log.WithFields(logrus.Fields{"an": len(a), "bn": len(b)}).Info("building multi-prime context")
		ctx, err := mpctx.New(seed)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}

		z := make([]uint64, len(a)+len(b))
		if err := mpmul.MpnMul(ctx, z, a, b); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		fmt.Println(wordsToHex(z))
		return nil
	},
}

var polyMulMidCommand = cli.Command{
	Name:      "poly-mul-mid",
	Usage:     "compute the truncated middle product of two polynomials mod p",
	ArgsUsage: "<a-coeffs> <b-coeffs>",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "mod", Usage: "modulus p"},
		cli.IntFlag{Name: "zl", Value: -1, Usage: "defaults to 0"},
		cli.IntFlag{Name: "zh", Value: -1, Usage: "defaults to an+bn-1"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return cli.NewExitError("poly-mul-mid requires <a-coeffs> <b-coeffs>", 1)
		}
		p, err := strconv.ParseUint(c.String("mod"), 10, 64)
		if err != nil {
			return cli.NewExitError("mod: "+err.Error(), 1)
		}
		a, err := parseCoeffs(c.Args().Get(0))
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		b, err := parseCoeffs(c.Args().Get(1))
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}

		zl, zh := c.Int("zl"), c.Int("zh")
		if zl < 0 {
			zl = 0
		}
		if zh < 0 {
			zh = len(a) + len(b) - 1
		}

		e, err := polymul.NewEngine(p)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		log.WithFields(logrus.Fields{"mod": p, "zl": zl, "zh": zh}).Info("computing middle product")

		z := make([]uint64, zh-zl)
		e.MulMid(z, zl, zh, a, b)
		fmt.Println(coeffsToString(z))
		return nil
	},
}

var polyMulAutoCommand = cli.Command{
	Name:      "poly-mul-auto",
	Usage:     "multiply two polynomials mod p, letting dispatch pick classical/KS/sd-FFT",
	ArgsUsage: "<a-coeffs> <b-coeffs>",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "mod", Usage: "modulus p"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return cli.NewExitError("poly-mul-auto requires <a-coeffs> <b-coeffs>", 1)
		}
		p, err := strconv.ParseUint(c.String("mod"), 10, 64)
		if err != nil {
			return cli.NewExitError("mod: "+err.Error(), 1)
		}
		a, err := parseCoeffs(c.Args().Get(0))
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		b, err := parseCoeffs(c.Args().Get(1))
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}

		var e *polymul.Engine
		if sdfft.IsUsablePrime(p) {
			e, err = polymul.NewEngine(p)
			if err != nil {
				return cli.NewExitError(err.Error(), 1)
			}
		}

		z, strategy := dispatch.Mul(e, p, a, b)
		log.WithFields(logrus.Fields{"mod": p, "strategy": strategy.String()}).Info("dispatched polynomial multiply")
		fmt.Println(coeffsToString(z))
		return nil
	},
}

var polyMulXpnm1Command = cli.Command{
	Name:      "poly-mul-xpnm1",
	Usage:     "compute the convolution of two polynomials modulo x^n-1",
	ArgsUsage: "<a-coeffs> <b-coeffs>",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "mod", Usage: "modulus p"},
		cli.IntFlag{Name: "depth", Usage: "log2(n)"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return cli.NewExitError("poly-mul-xpnm1 requires <a-coeffs> <b-coeffs>", 1)
		}
		p, err := strconv.ParseUint(c.String("mod"), 10, 64)
		if err != nil {
			return cli.NewExitError("mod: "+err.Error(), 1)
		}
		depth := c.Int("depth")
		ztrunc := 1 << uint(depth)

		a, err := parseCoeffs(c.Args().Get(0))
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		b, err := parseCoeffs(c.Args().Get(1))
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}

		e, err := polymul.NewEngine(p)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		log.WithFields(logrus.Fields{"mod": p, "n": ztrunc}).Info("computing wrap convolution")

		z := make([]uint64, ztrunc)
		e.MulModXpnm1(z, ztrunc, a, b, depth)
		fmt.Println(coeffsToString(z))
		return nil
	},
}

func parseHexWords(s string) ([]uint64, error) {
	s = strings.TrimPrefix(s, "0x")
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("sdfftutil: %q is not a valid hex integer", s)
	}
	words := v.Bits()
	if len(words) == 0 {
		return []uint64{0}, nil
	}
	out := make([]uint64, len(words))
	for i, w := range words {
		out[i] = uint64(w)
	}
	return out, nil
}

func wordsToHex(w []uint64) string {
	v := new(big.Int)
	for i := len(w) - 1; i >= 0; i-- {
		v.Lsh(v, 64)
		v.Or(v, new(big.Int).SetUint64(w[i]))
	}
	return "0x" + v.Text(16)
}

func parseCoeffs(s string) ([]uint64, error) {
	parts := strings.Split(s, ",")
	out := make([]uint64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v := new(big.Int)
		if _, ok := v.SetString(p, 10); !ok {
			return nil, fmt.Errorf("sdfftutil: %q is not a valid decimal coefficient", p)
		}
		out = append(out, v.Uint64())
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("sdfftutil: coefficient list must not be empty")
	}
	return out, nil
}

func coeffsToString(z []uint64) string {
	parts := make([]string, len(z))
	for i, v := range z {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ",")
}
