/*
 * doc.go, part of kinet.
 *
 * Copyright 2024 Tomás Aliaga <taliaga{at}stochemDOTorg>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

/*Package kinet is the main package of the kinet library, a toolkit for
exploratory kinetic analysis of molecular-dynamics trajectories. It provides
the topology and trajectory abstractions plus backbone-dihedral featurization,
which feed the estimation subpackages:


	**kinet capabilities**

    Reads PDB topologies and DCD trajectory files (also zstd/gzip-compressed).

    Discovers backbone phi/psi dihedral quintuplets per residue and extracts
	dihedral features, optionally as sin/cos pairs, from whole trajectories.

    Keeps the index bookkeeping for analyses over several concatenated
	trajectories, so frames can always be traced back to their file of origin.

    Time-lagged independent component analysis and Koopman/VAMP decomposition
	(package tica).

    k-means discretization of the reduced space (package cluster).

    Markov state model estimation at multiple lag times, implied timescales,
	Chapman-Kolmogorov validation, Bayesian uncertainties, committors, mean
	first passage times and coarse-grained flux networks (package msm).

    Free-energy surfaces (package histo), static plots (package kinplot),
	HTML reports (package report) and a sqlite results store (package store).

Coordinates are kept in gonum mat.Dense matrices with one point in space per
row. Feature matrices have one frame per row and one feature per column.*/
package kinet
