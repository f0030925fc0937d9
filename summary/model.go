package summary

import (
	"gonum.org/v1/gonum/stat"

	"github.com/arsenuw/lda2vec/matrix"
	"github.com/arsenuw/lda2vec/model"
)

// scalar and histogram tags
const (
	TagLossLDA        = "loss_lda"
	TagLossNCE        = "loss_nce"
	TagLossLDAAvg     = "loss_lda_avg"
	TagLossNCEAvg     = "loss_nce_avg"
	TagLossAvg        = "loss_avg"
	TagSparsity       = "doc_mixture_sparsity"
	TagMeanProportion = "doc_mixture_mean"
	TagWordHist       = "word_embeddings_hist"
	TagTopicHist      = "topic_embeddings_hist"
	TagDocHist        = "doc_embeddings_hist"
)

// Sparsity is the fraction of entries of m that are exactly zero.
func Sparsity(m *matrix.Float32Matrix) float64 {
	data := m.Data()
	if len(data) == 0 {
		return 0
	}
	zeros := 0
	for _, v := range data {
		if v == 0 {
			zeros += 1
		}
	}
	return float64(zeros) / float64(len(data))
}

// WriteModel emits the losses of the last step, their moving averages and
// the distribution of every embedding table.
func (w *Writer) WriteModel(step int64, m model.Model, last model.Losses) error {
	avgs := m.Averages()
	props := m.DocProportions()
	x := make([]float64, len(props.Data()))
	for i, v := range props.Data() {
		x[i] = float64(v)
	}

	scalars := []struct {
		tag string
		v   float64
	}{
		{TagLossLDA, last.LDA},
		{TagLossNCE, last.NCE},
		{TagLossLDAAvg, avgs.LDA},
		{TagLossNCEAvg, avgs.NCE},
		{TagLossAvg, avgs.Total},
		{TagSparsity, Sparsity(props)},
		{TagMeanProportion, stat.Mean(x, nil)},
	}
	for _, s := range scalars {
		if err := w.Scalar(step, s.tag, s.v); err != nil {
			return err
		}
	}

	hists := []struct {
		tag string
		m   *matrix.Float32Matrix
	}{
		{TagWordHist, m.WordEmbeddings()},
		{TagTopicHist, m.TopicEmbeddings()},
		{TagDocHist, m.DocEmbeddings()},
	}
	for _, h := range hists {
		if err := w.Histogram(step, h.tag, h.m.Data(), DefaultBins); err != nil {
			return err
		}
	}
	return nil
}
