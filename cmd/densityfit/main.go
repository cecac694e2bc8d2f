// densityfit reads newline-separated numbers from stdin (or draws a
// synthetic normal sample with -n) and describes the estimated probability
// density: mode, moments, and 1/2/3-sigma highest-density intervals.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/inferkit/pdftools/model"
	"github.com/inferkit/pdftools/pdf"
)

var (
	synthN   = flag.Int("n", 0, "draw a synthetic standard-normal sample of this size instead of reading stdin")
	seed     = flag.Uint64("seed", 42, "seed for the synthetic sample and cross-validation subsampling")
	crossVal = flag.Bool("cv", false, "select the KDE bandwidth by leave-one-out cross-validation")
	unimodal = flag.Bool("unimodal", false, "also fit the parametric unimodal estimator")
)

func main() {
	flag.Parse()

	var sample []float64
	if *synthN > 0 {
		dist := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(*seed)}
		sample = make([]float64, *synthN)
		for i := range sample {
			sample[i] = dist.Rand()
		}
	} else {
		sample = readInput(os.Stdin)
	}

	cfg := pdf.KDEConfig{CrossValidation: *crossVal, Source: rand.NewSource(*seed)}
	summary, err := pdf.EstimateDensitySummary(context.Background(), sample, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Gaussian KDE (n=%d)\n", len(sample))
	printSummary(summary)

	if *unimodal {
		est, err := pdf.NewUnimodalPdf(sample)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		summary, err = pdf.Summarize(est)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println()
		fmt.Println("Unimodal parametric fit")
		printSummary(summary)
	}
}

func printSummary(s *model.DensitySummary) {
	fmt.Printf("%12s %.6g\n", "mode", s.Mode)
	fmt.Printf("%12s %.6g\n", "mean", s.Moments.Mean)
	fmt.Printf("%12s %.6g\n", "std dev", math.Sqrt(s.Moments.Variance))
	fmt.Printf("%12s %.6g\n", "variance", s.Moments.Variance)
	fmt.Printf("%12s %.6g\n", "skewness", s.Moments.Skewness)
	fmt.Printf("%12s %.6g\n", "ex-kurtosis", s.Moments.ExKurtosis)
	printIntervals("1-sigma", s.Sigma1)
	printIntervals("2-sigma", s.Sigma2)
	printIntervals("3-sigma", s.Sigma3)
}

func printIntervals(label string, ivs []model.Interval) {
	for _, iv := range ivs {
		fmt.Printf("%12s %.6g -> %.6g\n", label, iv.Lower, iv.Upper)
		label = ""
	}
}

func readInput(r io.Reader) []float64 {
	var sample []float64
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		value, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		sample = append(sample, value)
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return sample
}
