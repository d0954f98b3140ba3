// Package core holds the shared data model of the XAFS reduction pipeline:
// the measured [Spectrum], the reduction [Config] with its functional
// options, and small numeric helpers such as the energy/wavenumber relation
// k = sqrt(ETOK·(E − e0)).
package core
