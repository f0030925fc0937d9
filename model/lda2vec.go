package model

import (
	"fmt"
	"math/rand/v2"

	log "github.com/golang/glog"

	"github.com/arsenuw/lda2vec/config"
	"github.com/arsenuw/lda2vec/matrix"
	"github.com/arsenuw/lda2vec/optim"
	"github.com/arsenuw/lda2vec/similarity"
	"github.com/arsenuw/lda2vec/skipgram"
)

func init() {
	Register("lda2vec", func(nDocs, nVocab int, hp config.Hyperparams, opts Options) (Model, error) {
		return New(nDocs, nVocab, hp, opts)
	})
	Register("word2vec", func(nDocs, nVocab int, hp config.Hyperparams, opts Options) (Model, error) {
		opts.Word2VecOnly = true
		return New(nDocs, nVocab, hp, opts)
	})
}

// ClipNorm bounds the global gradient norm of every step.
const ClipNorm = 5.0

// parameter names, also used as checkpoint keys
const (
	ParamWords      = "word_embeddings"
	ParamNCEWeights = "nce_weights"
	ParamNCEBiases  = "nce_biases"
	ParamDocWeights = "doc_weights"
	ParamTopics     = "topics"
	ParamFreqs      = "sampler_freqs"
)

type Options struct {
	// word frequencies for the negative sampler, nil for uniform
	Freqs []float64
	// pretrained V x E word embeddings
	Pretrained *matrix.Float32Matrix
	// do not update the word embeddings
	FixedWords bool
	// word2vec context and objective only
	Word2VecOnly bool
	Seed         uint64
}

// Losses holds the terms of one step. LDA is lmbda * fraction * (-log
// Dirichlet likelihood) and is reported in every phase.
type Losses struct {
	LDA   float64
	NCE   float64
	Total float64
}

type StepResult struct {
	// global step the result belongs to
	Step     int64
	Phase    Phase
	Examples int
	Losses   Losses
	GradNorm float64
	// true when the batch was empty and no update was applied
	Skipped bool
}

type lossPath func(b *skipgram.Batch) Losses

// LDA2Vec jointly trains word embeddings, topic embeddings and document
// topic proportions.
type LDA2Vec struct {
	hp           config.Hyperparams
	nDocs        int
	nVocab       int
	fixedWords   bool
	word2vecOnly bool
	freqs        []float64

	words    *EmbeddingTable
	mixture  *DocTopicMixture
	sampling *NegativeSampling
	prior    DirichletPrior
	schedule Schedule
	paths    [2]lossPath

	params    []*optim.Param
	grads     map[string]*matrix.Float32Matrix
	optimizer *optim.Adam
	rng       *rand.Rand

	step     int64
	fraction float64
	avgs     [3]MovingAverage
}

// Validate checks construction inputs without allocating anything.
func Validate(nDocs, nVocab int, hp config.Hyperparams, opts Options) error {
	if nDocs <= 0 || nVocab <= 0 {
		return fmt.Errorf("%w: documents %d, vocabulary %d", ErrMissingSize, nDocs, nVocab)
	}
	if opts.FixedWords && opts.Pretrained == nil {
		return ErrFixedWordsNeedPretrained
	}
	if opts.FixedWords && opts.Word2VecOnly {
		return ErrNothingToTrain
	}
	if opts.Pretrained != nil {
		r, c := opts.Pretrained.Shape()
		if r != nVocab {
			return fmt.Errorf("%w: %d rows for %d words", ErrPretrainedVocab, r, nVocab)
		}
		if c != hp.Embedding {
			return fmt.Errorf("%w: %d columns for embedding size %d", ErrPretrainedDim, c, hp.Embedding)
		}
	}
	if opts.Freqs != nil && len(opts.Freqs) != nVocab {
		return fmt.Errorf("%w: %d frequencies for %d words", ErrFreqsVocab, len(opts.Freqs), nVocab)
	}
	return hp.Validate()
}

// New creates a model for nDocs documents over nVocab words. Invalid
// combinations are rejected before any parameter is allocated.
func New(nDocs, nVocab int, hp config.Hyperparams, opts Options) (*LDA2Vec, error) {
	if err := Validate(nDocs, nVocab, hp, opts); err != nil {
		return nil, err
	}

	src := rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)
	sampler, err := NewUnigramSampler(nVocab, opts.Freqs, hp.Power, src)
	if err != nil {
		return nil, err
	}

	this := &LDA2Vec{
		hp:           hp,
		nDocs:        nDocs,
		nVocab:       nVocab,
		fixedWords:   opts.FixedWords,
		word2vecOnly: opts.Word2VecOnly,
		freqs:        opts.Freqs,
		mixture: NewDocTopicMixture(nDocs, hp.Topics, hp.Embedding,
			hp.Temperature, hp.DropoutRatio, src),
		sampling: NewNegativeSampling(nVocab, hp.Embedding, hp.Samples, sampler, src),
		prior: DirichletPrior{
			Alpha:       hp.EffectiveAlpha(),
			Temperature: hp.Temperature,
		},
		schedule:  Schedule{Disabled: opts.Word2VecOnly},
		grads:     make(map[string]*matrix.Float32Matrix),
		optimizer: optim.NewAdam(hp.LearningRate),
		rng:       rand.New(src),
		fraction:  1,
	}
	if opts.Pretrained != nil {
		this.words = NewPretrainedEmbeddingTable(opts.Pretrained, opts.FixedWords)
	} else {
		this.words = NewEmbeddingTable(nVocab, hp.Embedding, src)
	}
	for i := range this.avgs {
		this.avgs[i].Decay = 0.9
	}

	if !this.words.Fixed {
		this.addParam(ParamWords, this.words.W)
	}
	this.addParam(ParamNCEWeights, this.sampling.Weights)
	this.addParam(ParamNCEBiases, this.sampling.Biases)
	if !this.word2vecOnly {
		this.addParam(ParamDocWeights, this.mixture.Weights)
		this.addParam(ParamTopics, this.mixture.Factors)
	}

	wordPath := func(b *skipgram.Batch) Losses { return this.forward(b, false) }
	blendedPath := func(b *skipgram.Batch) Losses { return this.forward(b, true) }
	this.paths[PhaseWord2Vec] = wordPath
	this.paths[PhaseBlended] = blendedPath
	if this.word2vecOnly {
		this.paths[PhaseBlended] = wordPath
	}

	log.Infof("lda2vec: %d documents, %d words, %d topics, embedding %d, word2vec only %t, fixed words %t",
		nDocs, nVocab, hp.Topics, hp.Embedding, this.word2vecOnly, this.fixedWords)
	return this, nil
}

func (this *LDA2Vec) addParam(name string, value *matrix.Float32Matrix) {
	p := optim.NewParam(name, value)
	this.params = append(this.params, p)
	this.grads[name] = p.Grad
}

// Step runs one atomic unit of work: forward and backward pass on the
// batch, gradient clipping, one optimizer update and the step increment.
// An empty batch only advances the step.
func (this *LDA2Vec) Step(b *skipgram.Batch) StepResult {
	phase := this.schedule.Phase(this.step)
	res := StepResult{
		Step:     this.step,
		Phase:    phase,
		Examples: b.Len(),
	}
	if b.Len() == 0 {
		this.step += 1
		res.Skipped = true
		return res
	}

	optim.ZeroGrads(this.params)
	res.Losses = this.paths[phase](b)
	res.GradNorm = optim.ClipByGlobalNorm(this.params, ClipNorm)
	this.optimizer.Update(this.params)
	this.step += 1

	this.avgs[0].Update(res.Losses.LDA)
	this.avgs[1].Update(res.Losses.NCE)
	this.avgs[2].Update(res.Losses.Total)
	return res
}

// forward computes the loss terms of b and accumulates their gradients.
// withDoc adds the document context and the Dirichlet term to the
// objective; without it the Dirichlet term is only measured.
func (this *LDA2Vec) forward(b *skipgram.Batch, withDoc bool) Losses {
	n := b.Len()
	dim := this.hp.Embedding
	keep := this.hp.DropoutRatio

	ctx := matrix.NewFloat32Matrix(n, dim)
	pivotMask := this.dropoutMask(n*dim, keep)
	for i, p := range b.Pivots {
		c := ctx.Row(i)
		x := this.words.W.Row(int(p))
		for j := range c {
			c[j] = pivotMask[i*dim+j] * x[j]
		}
	}

	var props, docs *matrix.Float32Matrix
	var docMask []float32
	if withDoc {
		props = this.mixture.Proportions(b.Docs)
		docs = matrix.MatMul(props, this.mixture.Factors)
		docMask = this.dropoutMask(n*dim, this.mixture.Keep)
		for i := 0; i < n; i += 1 {
			c := ctx.Row(i)
			y := docs.Row(i)
			for j := range c {
				c[j] += docMask[i*dim+j] * y[j]
			}
		}
	}

	dctx := matrix.NewFloat32Matrix(n, dim)
	nce := this.sampling.Loss(ctx, b.Targets, this.sampling.Negatives(),
		dctx, this.grads[ParamNCEWeights], this.grads[ParamNCEBiases])

	if gW, ok := this.grads[ParamWords]; ok {
		for i, p := range b.Pivots {
			g := gW.Row(int(p))
			d := dctx.Row(i)
			for j := range g {
				g[j] += pivotMask[i*dim+j] * d[j]
			}
		}
	}

	if withDoc {
		this.backwardMixture(b.Docs, props, docMask, dctx)
	}

	scale := this.hp.Lambda * this.fraction
	var priorGrad *matrix.Float32Matrix
	if withDoc {
		priorGrad = this.grads[ParamDocWeights]
	}
	ll := this.prior.Evaluate(this.mixture.Weights, priorGrad, -scale)

	losses := Losses{
		LDA: -scale * ll,
		NCE: nce,
	}
	losses.Total = losses.NCE
	if withDoc {
		losses.Total += losses.LDA
	}
	return losses
}

// backwardMixture pushes the context gradient through the topic projection
// and the tempered softmax into the topic and document weight gradients.
func (this *LDA2Vec) backwardMixture(docIDs []int32, props *matrix.Float32Matrix,
	docMask []float32, dctx *matrix.Float32Matrix) {
	gF := this.grads[ParamTopics]
	gD := this.grads[ParamDocWeights]
	factors := this.mixture.Factors
	dim := this.hp.Embedding
	topics := this.hp.Topics
	t := float32(this.mixture.Temperature)

	dy := make([]float32, dim)
	dpi := make([]float32, topics)
	for i, doc := range docIDs {
		d := dctx.Row(i)
		for j := range dy {
			dy[j] = docMask[i*dim+j] * d[j]
		}
		pi := props.Row(i)
		dot := float32(0)
		for k := 0; k < topics; k += 1 {
			f := factors.Row(k)
			matrix.Axpy(gF.Row(k), pi[k], dy)
			dpi[k] = 0
			for j, v := range f {
				dpi[k] += v * dy[j]
			}
			dot += pi[k] * dpi[k]
		}
		g := gD.Row(int(doc))
		for k := 0; k < topics; k += 1 {
			g[k] += pi[k] * (dpi[k] - dot) / t
		}
	}
}

// dropoutMask returns inverted dropout multipliers, 0 or 1/keep.
func (this *LDA2Vec) dropoutMask(n int, keep float64) []float32 {
	mask := make([]float32, n)
	if keep >= 1 {
		for i := range mask {
			mask[i] = 1
		}
		return mask
	}
	scale := float32(1 / keep)
	for i := range mask {
		if this.rng.Float64() < keep {
			mask[i] = scale
		}
	}
	return mask
}

func (this *LDA2Vec) GlobalStep() int64 {
	return this.step
}

func (this *LDA2Vec) Phase() Phase {
	return this.schedule.Phase(this.step)
}

func (this *LDA2Vec) SwitchThreshold() int64 {
	return this.schedule.Threshold
}

func (this *LDA2Vec) SetSwitchThreshold(n int64) {
	this.schedule.Threshold = n
}

func (this *LDA2Vec) Fraction() float64 {
	return this.fraction
}

// SetFraction sets batch_size / corpus_size, the weight of the Dirichlet
// term relative to one minibatch.
func (this *LDA2Vec) SetFraction(f float64) {
	this.fraction = f
}

func (this *LDA2Vec) Hyperparams() config.Hyperparams {
	return this.hp
}

func (this *LDA2Vec) Word2VecOnly() bool {
	return this.word2vecOnly
}

func (this *LDA2Vec) FixedWords() bool {
	return this.fixedWords
}

func (this *LDA2Vec) Averages() Losses {
	return Losses{
		LDA:   this.avgs[0].Value(),
		NCE:   this.avgs[1].Value(),
		Total: this.avgs[2].Value(),
	}
}

// WordEmbeddings is the live V x E word table.
func (this *LDA2Vec) WordEmbeddings() *matrix.Float32Matrix {
	return this.words.W
}

// TopicEmbeddings is the live K x E topic table.
func (this *LDA2Vec) TopicEmbeddings() *matrix.Float32Matrix {
	return this.mixture.Factors
}

// DocEmbeddings computes the D x E document vectors.
func (this *LDA2Vec) DocEmbeddings() *matrix.Float32Matrix {
	return this.mixture.DocEmbeddings()
}

// DocProportions computes the D x K topic proportions.
func (this *LDA2Vec) DocProportions() *matrix.Float32Matrix {
	return this.mixture.AllProportions()
}

// Mixture exposes the document-topic mixture.
func (this *LDA2Vec) Mixture() *DocTopicMixture {
	return this.mixture
}

// Sampling exposes the negative sampling objective.
func (this *LDA2Vec) Sampling() *NegativeSampling {
	return this.sampling
}

// Prior exposes the Dirichlet regulariser.
func (this *LDA2Vec) Prior() DirichletPrior {
	return this.prior
}

// Similarity builds a query engine over the current word, topic and
// document tables. Call it once training is finished.
func (this *LDA2Vec) Similarity(cacheSize int) (*similarity.Engine, error) {
	return similarity.New(this.WordEmbeddings(), this.TopicEmbeddings(),
		this.DocEmbeddings(), cacheSize)
}
