package interceptor

import "sync"

// decodedReport stages the fields pulled out of one rtcp.ReceptionReport
// before they're handed to the estimator, so a high Receiver Report rate
// across many SSRCs doesn't allocate one of these per packet.
type decodedReport struct {
	ssrc     uint32
	fracLoss uint8
	rttMs    int64
	packets  int32
}

var decodedReportPool = sync.Pool{
	New: func() any { return &decodedReport{} },
}

func getDecodedReport() *decodedReport {
	return decodedReportPool.Get().(*decodedReport)
}

func putDecodedReport(r *decodedReport) {
	*r = decodedReport{}
	decodedReportPool.Put(r)
}
